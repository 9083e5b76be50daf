package sqlstore

import (
	"context"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type riders struct{ s *Store }

func (r riders) Create(ctx context.Context, rider *models.Rider) error {
	db, err := r.s.conn(ctx)
	if err != nil {
		return err
	}
	if rider.ID == "" {
		rider.ID = uuid.NewString()
	}
	row := riderFromModel(rider)
	return translate(db.Create(&row).Error, "insert rider")
}

func (r riders) GetByID(ctx context.Context, id string) (*models.Rider, error) {
	db, err := r.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var row riderRow
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err, "find rider")
	}
	return row.toModel(), nil
}

func (r riders) List(ctx context.Context, f storage.RiderFilter) ([]*models.Rider, error) {
	db, err := r.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Model(&riderRow{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Region != "" {
		q = q.Where("region = ?", f.Region)
	}
	var rows []riderRow
	if err := q.Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "list riders")
	}
	out := make([]*models.Rider, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func matchRider(q *gorm.DB, m storage.RiderMatch) *gorm.DB {
	q = q.Where("id = ?", m.ID)
	if m.ExpectStatus != "" {
		q = q.Where("status = ?", string(m.ExpectStatus))
	}
	return q
}

func (r riders) Update(ctx context.Context, m storage.RiderMatch, fields map[string]any) (storage.UpdateResult, error) {
	db, err := r.s.conn(ctx)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	columns, extras := splitFields(fields, models.IsRiderKey)
	delete(columns, models.RiderID)

	var result storage.UpdateResult
	err = db.Transaction(func(tx *gorm.DB) error {
		var row riderRow
		err := matchRider(tx.Model(&riderRow{}), m).Take(&row).Error
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
		res := matchRider(tx.Model(&riderRow{}), m).Updates(columns)
		if res.Error != nil {
			return res.Error
		}
		result.MatchedCount = res.RowsAffected
		result.ModifiedCount = res.RowsAffected
		return nil
	})
	if err != nil {
		return storage.UpdateResult{}, translate(err, "update rider")
	}
	return result, nil
}
