package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pot-code/course-reader/internal/infrastructure/driver"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestUseCase() (*UserUseCaseImpl, *UserMemory) {
	repo := NewUserMemory(driver.NewMemoryDB())
	uc := NewUserUseCase(repo)
	uc.Now = func() time.Time { return testNow }
	return uc, repo
}

func TestUserUseCase_InitAccount(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()
	identity := &UserModel{ID: "u1", DisplayName: "Ada", Email: "ada@example.com"}

	account, created, err := uc.InitAccount(ctx, identity)
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, testNow, account.CreatedAt)

	again, created, err := uc.InitAccount(ctx, identity)
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, account, again)
}

func TestUserUseCase_InitAccountRefreshesProfile(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	_, _, err := uc.InitAccount(ctx, &UserModel{ID: "u1", DisplayName: "Ada"})
	assert.NoError(t, err)
	_, _, err = uc.InitAccount(ctx, &UserModel{ID: "u1", DisplayName: "Ada Lovelace", PhotoURL: "https://example.com/ada.png"})
	assert.NoError(t, err)

	account, err := uc.GetAccount(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", account.DisplayName)
	assert.Equal(t, "https://example.com/ada.png", account.PhotoURL)
	assert.Equal(t, testNow, account.CreatedAt)
}

func TestUserUseCase_GetAccountAbsent(t *testing.T) {
	uc, _ := newTestUseCase()
	account, err := uc.GetAccount(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, account)
}

func TestUserMemory_SaveUserTwice(t *testing.T) {
	_, repo := newTestUseCase()
	ctx := context.Background()

	assert.NoError(t, repo.SaveUser(ctx, &UserModel{ID: "u1"}))
	assert.True(t, errors.Is(repo.SaveUser(ctx, &UserModel{ID: "u1"}), ErrAccountExists))
}

// racingRepository reports the account as absent once, then loses the create race
type racingRepository struct {
	*UserMemory
	raced bool
}

func (rr *racingRepository) FindByID(ctx context.Context, id string) (*UserModel, error) {
	if !rr.raced {
		rr.raced = true
		if err := rr.UserMemory.SaveUser(ctx, &UserModel{ID: id, DisplayName: "other tab", CreatedAt: testNow}); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return rr.UserMemory.FindByID(ctx, id)
}

func TestUserUseCase_InitAccountCreateRace(t *testing.T) {
	_, mem := newTestUseCase()
	uc := NewUserUseCase(&racingRepository{UserMemory: mem})

	account, created, err := uc.InitAccount(context.Background(), &UserModel{ID: "u1", DisplayName: "Ada"})
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Ada", account.DisplayName)
}

func TestAccountFromValues(t *testing.T) {
	account, err := accountFromValues("u1", []interface{}{nil, nil, nil, nil})
	assert.NoError(t, err)
	assert.Nil(t, account)

	account, err = accountFromValues("u1", []interface{}{"1615734566000", "Ada", nil, "ada@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, &UserModel{
		ID:          "u1",
		DisplayName: "Ada",
		Email:       "ada@example.com",
		CreatedAt:   testNow,
	}, account)

	_, err = accountFromValues("u1", []interface{}{"yesterday", "", "", ""})
	assert.Error(t, err)
}
