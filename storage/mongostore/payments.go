package mongostore

import (
	"context"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type payments struct{ s *Store }

func (p payments) Create(ctx context.Context, payment *models.Payment) error {
	c, err := p.s.collection(paymentsCollection)
	if err != nil {
		return err
	}
	if payment.ID == "" {
		payment.ID = newID()
	}
	return insertOne(ctx, c, payment)
}

func (p payments) List(ctx context.Context, f storage.PaymentFilter) ([]*models.Payment, error) {
	c, err := p.s.collection(paymentsCollection)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if f.UserEmail != "" {
		filter["user_email"] = f.UserEmail
	}
	return findAll[models.Payment](ctx, c, filter, options.Find().SetSort(bson.D{{Key: "paid_at", Value: -1}}))
}
