package sqlstore

import (
	"context"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/google/uuid"
)

type payments struct{ s *Store }

func (p payments) Create(ctx context.Context, payment *models.Payment) error {
	db, err := p.s.conn(ctx)
	if err != nil {
		return err
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	row := paymentFromModel(payment)
	return translate(db.Create(&row).Error, "insert payment")
}

func (p payments) List(ctx context.Context, f storage.PaymentFilter) ([]*models.Payment, error) {
	db, err := p.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Model(&paymentRow{})
	if f.UserEmail != "" {
		q = q.Where("user_email = ?", f.UserEmail)
	}
	var rows []paymentRow
	if err := q.Order("paid_at desc").Find(&rows).Error; err != nil {
		return nil, translate(err, "list payments")
	}
	out := make([]*models.Payment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
