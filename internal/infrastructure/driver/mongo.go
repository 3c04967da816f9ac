package driver

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// UsersCollection collection of user documents keyed by user id, course
// records live under their progress field
const UsersCollection = "users"

// MongoConfig connection settings of the document database
type MongoConfig struct {
	URI      string
	Database string
	MaxConn  uint64
}

// MongoClient wraps a connected client bound to one database
type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoClient connect to mongo and verify the primary is reachable
func NewMongoClient(ctx context.Context, cfg *MongoConfig) (*MongoClient, error) {
	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10 * time.Second)
	if cfg.MaxConn > 0 {
		opts.SetMaxPoolSize(cfg.MaxConn)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return &MongoClient{client: client, db: client.Database(cfg.Database)}, nil
}

// NewMongoClientFrom wrap an existing client
func NewMongoClientFrom(client *mongo.Client, database string) *MongoClient {
	return &MongoClient{client: client, db: client.Database(database)}
}

// Collection get a collection handle of the bound database
func (mc *MongoClient) Collection(name string) *mongo.Collection {
	return mc.db.Collection(name)
}

// Ping check the primary is reachable
func (mc *MongoClient) Ping(ctx context.Context) error {
	return mc.client.Ping(ctx, readpref.Primary())
}

// Close disconnect the client
func (mc *MongoClient) Close(ctx context.Context) error {
	return mc.client.Disconnect(ctx)
}
