package progress

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/pot-code/course-reader/internal/infrastructure/driver"
)

// ProgressRedis ProgressRepository on one redis hash per user
type ProgressRedis struct {
	Client *driver.RedisClient
}

var _ ProgressRepository = &ProgressRedis{}

// NewProgressRedis ...
func NewProgressRedis(Client *driver.RedisClient) *ProgressRedis {
	return &ProgressRedis{Client}
}

func (repo *ProgressRedis) FindUserProgress(ctx context.Context, userID string) (UserProgress, bool, error) {
	fields, err := repo.Client.Conn().HGetAll(ctx, driver.UserKey(userID)).Result()
	if err != nil {
		return nil, false, err
	}
	// redis drops empty hashes, no fields means no account
	if len(fields) == 0 {
		return UserProgress{}, false, nil
	}
	raw := make(map[string][]byte, len(fields))
	for k, v := range fields {
		raw[k] = []byte(v)
	}
	progress, err := decodeProgressFields(raw)
	return progress, true, err
}

func (repo *ProgressRedis) FindCourseProgress(ctx context.Context, userID, courseID string) (*CourseProgress, bool, error) {
	key := driver.UserKey(userID)
	var (
		exists *redis.IntCmd
		field  *redis.StringCmd
	)
	_, err := repo.Client.Conn().Pipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, key)
		field = pipe.HGet(ctx, key, ProgressField(courseID))
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, false, err
	}
	if exists.Val() == 0 {
		return nil, false, nil
	}
	raw, err := field.Bytes()
	if err == redis.Nil {
		return nil, true, nil
	}
	if err != nil {
		return nil, true, err
	}
	cp, err := decodeCourseProgress(raw)
	return cp, true, err
}

// SaveCourseProgress WATCH the user hash, check the stored revision and set the
// course field in a MULTI block. A concurrent change aborts the transaction.
func (repo *ProgressRedis) SaveCourseProgress(ctx context.Context, userID, courseID string, cp *CourseProgress, expected int64) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	key := driver.UserKey(userID)
	field := ProgressField(courseID)

	err = repo.Client.Conn().Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAccountNotInitialized
		}

		var revision int64
		raw, err := tx.HGet(ctx, key, field).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			stored, err := decodeCourseProgress(raw)
			if err != nil {
				return err
			}
			revision = stored.Revision
		}
		if revision != expected {
			return ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, data)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}
