package driver

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// UserKeyPrefix prefix of the per user hash
const UserKeyPrefix = "user:"

// UserKey hash holding the account and progress fields of userID
func UserKey(userID string) string {
	return UserKeyPrefix + userID
}

// RedisConfig connection settings of the kv store
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisClient .
type RedisClient struct {
	conn *redis.Client
}

// NewRedisClient create a redis client
func NewRedisClient(cfg *RedisConfig) *RedisClient {
	conn := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisClient{
		conn: conn,
	}
}

// NewRedisClientFrom wrap an existing client
func NewRedisClientFrom(conn *redis.Client) *RedisClient {
	return &RedisClient{conn: conn}
}

// Conn underlying go-redis client
func (rdb *RedisClient) Conn() *redis.Client {
	return rdb.conn
}

// Ping check server availability
func (rdb *RedisClient) Ping(ctx context.Context) error {
	return rdb.conn.Ping(ctx).Err()
}

// Close release the connection pool
func (rdb *RedisClient) Close(ctx context.Context) error {
	return rdb.conn.Close()
}
