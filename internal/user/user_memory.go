package user

import (
	"context"
	"encoding/json"

	"github.com/pot-code/course-reader/internal/infrastructure/driver"
)

// UserMemory UserRepository on a process local MemoryDB, the account lives in
// the account field of the user document
type UserMemory struct {
	DB *driver.MemoryDB
}

var _ UserRepository = &UserMemory{}

// NewUserMemory ...
func NewUserMemory(DB *driver.MemoryDB) *UserMemory {
	return &UserMemory{DB}
}

func (repo *UserMemory) FindByID(ctx context.Context, id string) (*UserModel, error) {
	doc, ok := repo.DB.Get(id)
	if !ok {
		return nil, nil
	}
	raw, ok := doc[driver.AccountField]
	if !ok {
		return nil, nil
	}
	user := new(UserModel)
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (repo *UserMemory) SaveUser(ctx context.Context, post *UserModel) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}
	return repo.DB.Mutate(post.ID, func(doc map[string][]byte, exists bool) (map[string][]byte, error) {
		if exists {
			return nil, ErrAccountExists
		}
		doc[driver.AccountField] = data
		return doc, nil
	})
}

func (repo *UserMemory) UpdateProfile(ctx context.Context, id string, profile Profile) error {
	return repo.DB.Mutate(id, func(doc map[string][]byte, exists bool) (map[string][]byte, error) {
		if !exists {
			return nil, nil
		}
		user := new(UserModel)
		if err := json.Unmarshal(doc[driver.AccountField], user); err != nil {
			return nil, err
		}
		user.DisplayName = profile.DisplayName
		user.PhotoURL = profile.PhotoURL
		user.Email = profile.Email
		data, err := json.Marshal(user)
		if err != nil {
			return nil, err
		}
		doc[driver.AccountField] = data
		return doc, nil
	})
}
