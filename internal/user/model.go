package user

import (
	"context"
	"errors"
	"time"
)

// ErrAccountExists account document already created
var ErrAccountExists = errors.New("account already exists")

// UserModel account document of one identity
type UserModel struct {
	ID          string    `json:"uid" bson:"_id"`
	DisplayName string    `json:"displayName" bson:"displayName"`
	PhotoURL    string    `json:"photoURL" bson:"photoURL"`
	Email       string    `json:"email" bson:"email"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// Profile fields merged into an existing account
type Profile struct {
	DisplayName string `json:"displayName" bson:"displayName"`
	PhotoURL    string `json:"photoURL" bson:"photoURL"`
	Email       string `json:"email" bson:"email"`
}

// Profile profile part of the account
func (um *UserModel) Profile() Profile {
	return Profile{DisplayName: um.DisplayName, PhotoURL: um.PhotoURL, Email: um.Email}
}

// UserRepository account document storage
type UserRepository interface {
	// FindByID nil when there is no account
	FindByID(ctx context.Context, id string) (*UserModel, error)
	// SaveUser create the account, ErrAccountExists when already created
	SaveUser(ctx context.Context, post *UserModel) error
	// UpdateProfile overwrite the profile fields, leaves progress untouched
	UpdateProfile(ctx context.Context, id string, profile Profile) error
}

// UserUseCase .
type UserUseCase interface {
	GetAccount(ctx context.Context, id string) (*UserModel, error)
	InitAccount(ctx context.Context, identity *UserModel) (account *UserModel, created bool, err error)
}
