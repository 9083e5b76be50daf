package mongostore

import (
	"context"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type riders struct{ s *Store }

func (r riders) Create(ctx context.Context, rider *models.Rider) error {
	c, err := r.s.collection(ridersCollection)
	if err != nil {
		return err
	}
	if rider.ID == "" {
		rider.ID = newID()
	}
	return insertOne(ctx, c, rider)
}

func (r riders) GetByID(ctx context.Context, id string) (*models.Rider, error) {
	c, err := r.s.collection(ridersCollection)
	if err != nil {
		return nil, err
	}
	return findOne[models.Rider](ctx, c, bson.M{models.RiderID: id})
}

// List returns riders in application order
func (r riders) List(ctx context.Context, f storage.RiderFilter) ([]*models.Rider, error) {
	c, err := r.s.collection(ridersCollection)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if f.Status != "" {
		filter[models.RiderStatusKey] = f.Status
	}
	if f.Region != "" {
		filter[models.RiderRegion] = f.Region
	}
	opts := options.Find().SetSort(bson.D{{Key: models.RiderCreatedAt, Value: 1}})
	return findAll[models.Rider](ctx, c, filter, opts)
}

func (r riders) Update(ctx context.Context, m storage.RiderMatch, fields map[string]any) (storage.UpdateResult, error) {
	c, err := r.s.collection(ridersCollection)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	filter := bson.M{models.RiderID: m.ID}
	if m.ExpectStatus != "" {
		filter[models.RiderStatusKey] = m.ExpectStatus
	}
	return updateOne(ctx, c, filter, fields)
}
