package mongostore

import (
	"context"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type parcels struct{ s *Store }

func (p parcels) Create(ctx context.Context, parcel *models.Parcel) error {
	c, err := p.s.collection(parcelsCollection)
	if err != nil {
		return err
	}
	if parcel.ID == "" {
		parcel.ID = newID()
	}
	return insertOne(ctx, c, parcel)
}

func (p parcels) GetByID(ctx context.Context, id string) (*models.Parcel, error) {
	c, err := p.s.collection(parcelsCollection)
	if err != nil {
		return nil, err
	}
	return findOne[models.Parcel](ctx, c, bson.M{models.ParcelID: id})
}

func (p parcels) GetByTrackingID(ctx context.Context, trackingID string) (*models.Parcel, error) {
	c, err := p.s.collection(parcelsCollection)
	if err != nil {
		return nil, err
	}
	return findOne[models.Parcel](ctx, c, bson.M{models.ParcelTrackingID: trackingID})
}

func (p parcels) List(ctx context.Context, f storage.ParcelFilter) ([]*models.Parcel, error) {
	c, err := p.s.collection(parcelsCollection)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if f.UserEmail != "" {
		filter[models.ParcelUserEmail] = f.UserEmail
	}
	if f.AssignedRider != "" {
		filter[models.ParcelAssignedRider] = f.AssignedRider
	}
	if f.DeliveryStatus != "" {
		filter[models.ParcelDeliveryStatus] = f.DeliveryStatus
	}
	if f.PaymentStatus != "" {
		filter[models.ParcelPaymentStatus] = f.PaymentStatus
	}
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = storage.SortByCreationDate
	}
	opts := options.Find().SetSort(bson.D{{Key: string(sortBy), Value: -1}})
	return findAll[models.Parcel](ctx, c, filter, opts)
}

func (p parcels) Update(ctx context.Context, m storage.ParcelMatch, fields map[string]any) (storage.UpdateResult, error) {
	c, err := p.s.collection(parcelsCollection)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	filter := bson.M{}
	switch {
	case m.ID != "":
		filter[models.ParcelID] = m.ID
	case m.TrackingID != "":
		filter[models.ParcelTrackingID] = m.TrackingID
	default:
		return storage.UpdateResult{}, errors.New("parcel match needs an id or tracking id")
	}
	if m.DeliveryStatus != "" {
		filter[models.ParcelDeliveryStatus] = m.DeliveryStatus
	}
	if m.NotPaid {
		filter[models.ParcelPaymentStatus] = bson.M{"$ne": models.PaymentPaid}
	}
	return updateOne(ctx, c, filter, fields)
}

func (p parcels) DeleteByTrackingID(ctx context.Context, trackingID string) (int64, error) {
	c, err := p.s.collection(parcelsCollection)
	if err != nil {
		return 0, err
	}
	res, err := c.DeleteOne(ctx, bson.M{models.ParcelTrackingID: trackingID})
	if err != nil {
		return 0, errors.Wrap(err, "delete parcel")
	}
	return res.DeletedCount, nil
}
