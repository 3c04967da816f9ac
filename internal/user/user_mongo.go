package user

import (
	"context"

	"github.com/pot-code/course-reader/internal/infrastructure/driver"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserMongo UserRepository on the users collection
type UserMongo struct {
	Client *driver.MongoClient
}

var _ UserRepository = &UserMongo{}

// NewUserMongo ...
func NewUserMongo(Client *driver.MongoClient) *UserMongo {
	return &UserMongo{Client}
}

func (repo *UserMongo) FindByID(ctx context.Context, id string) (*UserModel, error) {
	user := new(UserModel)
	opts := options.FindOne().SetProjection(bson.M{"progress": 0})
	err := repo.Client.Collection(driver.UsersCollection).FindOne(ctx, bson.M{"_id": id}, opts).Decode(user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (repo *UserMongo) SaveUser(ctx context.Context, post *UserModel) error {
	_, err := repo.Client.Collection(driver.UsersCollection).InsertOne(ctx, post)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAccountExists
	}
	return err
}

func (repo *UserMongo) UpdateProfile(ctx context.Context, id string, profile Profile) error {
	_, err := repo.Client.Collection(driver.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": profile},
	)
	return err
}
