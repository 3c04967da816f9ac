package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.elastic.co/apm"
)

// UserUseCaseImpl ...
type UserUseCaseImpl struct {
	UserRepository UserRepository
	Now            func() time.Time
}

var _ UserUseCase = &UserUseCaseImpl{}

// NewUserUseCase ...
func NewUserUseCase(
	UserRepository UserRepository,
) *UserUseCaseImpl {
	return &UserUseCaseImpl{
		UserRepository: UserRepository,
		Now:            time.Now,
	}
}

// GetAccount account document, nil when not initialized
func (uu *UserUseCaseImpl) GetAccount(ctx context.Context, id string) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.GetAccount", "service")
	defer apmSpan.End()

	return uu.UserRepository.FindByID(ctx, id)
}

// InitAccount create the account document of identity on first call, later
// calls refresh the profile
func (uu *UserUseCaseImpl) InitAccount(ctx context.Context, identity *UserModel) (*UserModel, bool, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.InitAccount", "service")
	defer apmSpan.End()

	ur := uu.UserRepository
	existing, err := ur.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		post := *identity
		post.CreatedAt = uu.Now().UTC()
		err := ur.SaveUser(ctx, &post)
		if err == nil {
			return &post, true, nil
		}
		if !errors.Is(err, ErrAccountExists) {
			return nil, false, err
		}
		// created concurrently, fall through to the profile refresh
		if existing, err = ur.FindByID(ctx, identity.ID); err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, errors.Wrap(ErrAccountExists, "account vanished after create conflict")
		}
	}

	profile := identity.Profile()
	if existing.Profile() != profile {
		if err := ur.UpdateProfile(ctx, identity.ID, profile); err != nil {
			return nil, false, err
		}
		existing.DisplayName = profile.DisplayName
		existing.PhotoURL = profile.PhotoURL
		existing.Email = profile.Email
	}
	return existing, false, nil
}
