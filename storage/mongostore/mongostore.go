package mongostore

import (
	"context"
	"time"

	"parcel-delivery-api/storage"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	ridersCollection   = "riders"
	parcelsCollection  = "parcels"
	paymentsCollection = "payments"
)

// Store is the MongoDB-backed storage.Store. The zero value is usable but
// every operation fails with storage.ErrNotInitialized.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.Store = (*Store)(nil)

// New connects, pings the primary and ensures the unique indexes.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1).SetStrict(true).SetDeprecationErrors(true)).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping mongo")
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(coll, field string) error {
		_, err := s.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		return errors.Wrapf(err, "create index %s.%s", coll, field)
	}
	if err := unique(usersCollection, "email"); err != nil {
		return err
	}
	if err := unique(parcelsCollection, "tracking_id"); err != nil {
		return err
	}
	if err := unique(paymentsCollection, "tracking_id"); err != nil {
		return err
	}
	_, err := s.db.Collection(ridersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "region", Value: 1}},
	})
	return errors.Wrap(err, "create index riders.status_region")
}

func (s *Store) collection(name string) (*mongo.Collection, error) {
	if s == nil || s.db == nil {
		return nil, storage.ErrNotInitialized
	}
	return s.db.Collection(name), nil
}

func (s *Store) Users() storage.UserStore       { return users{s} }
func (s *Store) Riders() storage.RiderStore     { return riders{s} }
func (s *Store) Parcels() storage.ParcelStore   { return parcels{s} }
func (s *Store) Payments() storage.PaymentStore { return payments{s} }

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return storage.ErrNotInitialized
	}
	return errors.Wrap(s.client.Ping(ctx, readpref.Primary()), "ping mongo")
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client, s.db = nil, nil
	return errors.Wrap(err, "disconnect mongo")
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// updateOne runs a $set update; an empty field set only reports the match count.
func updateOne(ctx context.Context, c *mongo.Collection, filter bson.M, fields map[string]any) (storage.UpdateResult, error) {
	if len(fields) == 0 {
		n, err := c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		if err != nil {
			return storage.UpdateResult{}, errors.Wrap(err, "count")
		}
		return storage.UpdateResult{MatchedCount: n}, nil
	}
	res, err := c.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.UpdateResult{}, storage.ErrDuplicate
		}
		return storage.UpdateResult{}, errors.Wrap(err, "update")
	}
	return storage.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func insertOne(ctx context.Context, c *mongo.Collection, doc any) error {
	if _, err := c.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicate
		}
		return errors.Wrap(err, "insert")
	}
	return nil
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := c.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "find one")
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]*T, error) {
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find")
	}
	out := []*T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	return out, nil
}
