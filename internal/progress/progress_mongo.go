package progress

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pot-code/course-reader/internal/infrastructure/driver"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type progressDocument struct {
	Progress map[string]*CourseProgress `bson:"progress"`
}

// ProgressMongo ProgressRepository on the users collection
type ProgressMongo struct {
	Client *driver.MongoClient
}

var _ ProgressRepository = &ProgressMongo{}

// NewProgressMongo ...
func NewProgressMongo(Client *driver.MongoClient) *ProgressMongo {
	return &ProgressMongo{Client}
}

func (repo *ProgressMongo) users() *mongo.Collection {
	return repo.Client.Collection(driver.UsersCollection)
}

func (repo *ProgressMongo) FindUserProgress(ctx context.Context, userID string) (UserProgress, bool, error) {
	var doc progressDocument
	opts := options.FindOne().SetProjection(bson.M{"progress": 1})
	err := repo.users().FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return UserProgress{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	progress := UserProgress{}
	for courseID, cp := range doc.Progress {
		if cp == nil {
			continue
		}
		normalize(cp)
		progress[courseID] = cp
	}
	return progress, true, nil
}

func (repo *ProgressMongo) FindCourseProgress(ctx context.Context, userID, courseID string) (*CourseProgress, bool, error) {
	path, err := progressPath(courseID)
	if err != nil {
		return nil, false, err
	}
	var doc progressDocument
	opts := options.FindOne().SetProjection(bson.M{path: 1})
	err = repo.users().FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	cp := doc.Progress[courseID]
	if cp != nil {
		normalize(cp)
	}
	return cp, true, nil
}

// SaveCourseProgress set the course sub-document with a filter matching the
// expected revision, or the absence of the record when expected is 0
func (repo *ProgressMongo) SaveCourseProgress(ctx context.Context, userID, courseID string, cp *CourseProgress, expected int64) error {
	path, err := progressPath(courseID)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": userID}
	if expected == 0 {
		filter[path] = bson.M{"$exists": false}
	} else {
		filter[path+".revision"] = expected
	}

	res, err := repo.users().UpdateOne(ctx, filter, bson.M{"$set": bson.M{path: cp}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := repo.users().CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotInitialized
	}
	return ErrConflict
}

// progressPath dotted path of the course record, course ids must not split it
func progressPath(courseID string) (string, error) {
	if courseID == "" || strings.ContainsAny(courseID, ".$") {
		return "", errors.Errorf("course id %q can not be used as a document field", courseID)
	}
	return "progress." + courseID, nil
}
