package user

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/pot-code/course-reader/internal/infrastructure/driver"
)

// account fields of the user hash
const (
	fieldCreatedAt   = "createdAt"
	fieldDisplayName = "displayName"
	fieldPhotoURL    = "photoURL"
	fieldEmail       = "email"
)

// UserRedis UserRepository on the per user hash, the account is spread over
// top level fields next to the progress fields
type UserRedis struct {
	Client *driver.RedisClient
}

var _ UserRepository = &UserRedis{}

// NewUserRedis ...
func NewUserRedis(Client *driver.RedisClient) *UserRedis {
	return &UserRedis{Client}
}

func (repo *UserRedis) FindByID(ctx context.Context, id string) (*UserModel, error) {
	values, err := repo.Client.Conn().HMGet(ctx, driver.UserKey(id),
		fieldCreatedAt, fieldDisplayName, fieldPhotoURL, fieldEmail).Result()
	if err != nil {
		return nil, err
	}
	return accountFromValues(id, values)
}

func accountFromValues(id string, values []interface{}) (*UserModel, error) {
	if len(values) != 4 || values[0] == nil {
		return nil, nil
	}
	str := func(v interface{}) string {
		s, _ := v.(string)
		return s
	}
	ms, err := strconv.ParseInt(str(values[0]), 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "decoding createdAt")
	}
	return &UserModel{
		ID:          id,
		CreatedAt:   time.Unix(0, ms*int64(time.Millisecond)).UTC(),
		DisplayName: str(values[1]),
		PhotoURL:    str(values[2]),
		Email:       str(values[3]),
	}, nil
}

func (repo *UserRedis) SaveUser(ctx context.Context, post *UserModel) error {
	key := driver.UserKey(post.ID)
	err := repo.Client.Conn().Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAccountExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldCreatedAt, post.CreatedAt.UnixNano()/int64(time.Millisecond),
				fieldDisplayName, post.DisplayName,
				fieldPhotoURL, post.PhotoURL,
				fieldEmail, post.Email,
			)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrAccountExists
	}
	return err
}

func (repo *UserRedis) UpdateProfile(ctx context.Context, id string, profile Profile) error {
	key := driver.UserKey(id)
	n, err := repo.Client.Conn().Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return err
	}
	return repo.Client.Conn().HSet(ctx, key,
		fieldDisplayName, profile.DisplayName,
		fieldPhotoURL, profile.PhotoURL,
		fieldEmail, profile.Email,
	).Err()
}
