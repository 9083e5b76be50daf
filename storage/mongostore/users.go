package mongostore

import (
	"context"
	"regexp"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type users struct{ s *Store }

func (u users) Upsert(ctx context.Context, in models.UserUpsert) (*models.User, bool, error) {
	c, err := u.s.collection(usersCollection)
	if err != nil {
		return nil, false, err
	}
	res, err := c.UpdateOne(ctx,
		bson.M{"email": in.Email},
		bson.M{
			"$setOnInsert": bson.M{"_id": newID(), "created_at": in.Now, "role": in.Role},
			"$set":         bson.M{"name": in.Name, "photo": in.Photo, "last_login": in.Now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, false, storage.ErrDuplicate
		}
		return nil, false, errors.Wrap(err, "upsert user")
	}
	user, err := findOne[models.User](ctx, c, bson.M{"email": in.Email})
	if err != nil {
		return nil, false, err
	}
	return user, res.UpsertedCount > 0, nil
}

func (u users) GetByID(ctx context.Context, id string) (*models.User, error) {
	c, err := u.s.collection(usersCollection)
	if err != nil {
		return nil, err
	}
	return findOne[models.User](ctx, c, bson.M{"_id": id})
}

func (u users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	c, err := u.s.collection(usersCollection)
	if err != nil {
		return nil, err
	}
	return findOne[models.User](ctx, c, bson.M{"email": email})
}

func (u users) Search(ctx context.Context, emailPart string, limit int) ([]*models.User, error) {
	c, err := u.s.collection(usersCollection)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"email": bson.M{"$regex": regexp.QuoteMeta(emailPart), "$options": "i"}}
	return findAll[models.User](ctx, c, filter, options.Find().SetLimit(int64(limit)))
}

func (u users) SetRole(ctx context.Context, id string, role models.UserRole) (storage.UpdateResult, error) {
	c, err := u.s.collection(usersCollection)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	return updateOne(ctx, c, bson.M{"_id": id}, map[string]any{"role": role})
}

func (u users) SetRoleByEmail(ctx context.Context, email string, role models.UserRole) (storage.UpdateResult, error) {
	c, err := u.s.collection(usersCollection)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	return updateOne(ctx, c, bson.M{"email": email}, map[string]any{"role": role})
}
