package sqlstore

import (
	"context"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type parcels struct{ s *Store }

func (p parcels) Create(ctx context.Context, parcel *models.Parcel) error {
	db, err := p.s.conn(ctx)
	if err != nil {
		return err
	}
	if parcel.ID == "" {
		parcel.ID = uuid.NewString()
	}
	row := parcelFromModel(parcel)
	return translate(db.Create(&row).Error, "insert parcel")
}

func (p parcels) GetByID(ctx context.Context, id string) (*models.Parcel, error) {
	return p.getBy(ctx, "id = ?", id)
}

func (p parcels) GetByTrackingID(ctx context.Context, trackingID string) (*models.Parcel, error) {
	return p.getBy(ctx, "tracking_id = ?", trackingID)
}

func (p parcels) getBy(ctx context.Context, cond string, arg any) (*models.Parcel, error) {
	db, err := p.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var row parcelRow
	if err := db.Where(cond, arg).Take(&row).Error; err != nil {
		return nil, translate(err, "find parcel")
	}
	return row.toModel(), nil
}

func (p parcels) List(ctx context.Context, f storage.ParcelFilter) ([]*models.Parcel, error) {
	db, err := p.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Model(&parcelRow{})
	if f.UserEmail != "" {
		q = q.Where("user_email = ?", f.UserEmail)
	}
	if f.AssignedRider != "" {
		q = q.Where("assigned_rider = ?", f.AssignedRider)
	}
	if f.DeliveryStatus != "" {
		q = q.Where("delivery_status = ?", string(f.DeliveryStatus))
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", string(f.PaymentStatus))
	}
	switch f.SortBy {
	case storage.SortByDeliveredAt:
		q = q.Order("delivered_at desc")
	default:
		q = q.Order("creation_date desc")
	}

	var rows []parcelRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list parcels")
	}
	out := make([]*models.Parcel, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func matchParcel(q *gorm.DB, m storage.ParcelMatch) *gorm.DB {
	if m.ID != "" {
		q = q.Where("id = ?", m.ID)
	} else {
		q = q.Where("tracking_id = ?", m.TrackingID)
	}
	if m.DeliveryStatus != "" {
		q = q.Where("delivery_status = ?", string(m.DeliveryStatus))
	}
	if m.NotPaid {
		q = q.Where("(payment_status IS NULL OR payment_status <> ?)", string(models.PaymentPaid))
	}
	return q
}

// Update writes typed columns directly and merges any other keys into the
// stored details, all inside one transaction.
func (p parcels) Update(ctx context.Context, m storage.ParcelMatch, fields map[string]any) (storage.UpdateResult, error) {
	db, err := p.s.conn(ctx)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	if m.ID == "" && m.TrackingID == "" {
		return storage.UpdateResult{}, errors.New("parcel match needs an id or tracking id")
	}

	columns, extras := splitFields(fields, models.IsParcelKey)
	delete(columns, models.ParcelID)

	var result storage.UpdateResult
	err = db.Transaction(func(tx *gorm.DB) error {
		var row parcelRow
		err := matchParcel(tx.Model(&parcelRow{}), m).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		result.MatchedCount = 1
		if len(extras) > 0 {
			columns["details"] = mergeDetails(row.Details, extras)
		}
		if len(columns) == 0 {
			return nil
		}
		res := matchParcel(tx.Model(&parcelRow{}), m).Updates(columns)
		if res.Error != nil {
			return res.Error
		}
		result.MatchedCount = res.RowsAffected
		result.ModifiedCount = res.RowsAffected
		return nil
	})
	if err != nil {
		return storage.UpdateResult{}, translate(err, "update parcel")
	}
	return result, nil
}

func (p parcels) DeleteByTrackingID(ctx context.Context, trackingID string) (int64, error) {
	db, err := p.s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("tracking_id = ?", trackingID).Delete(&parcelRow{})
	if res.Error != nil {
		return 0, translate(res.Error, "delete parcel")
	}
	return res.RowsAffected, nil
}
