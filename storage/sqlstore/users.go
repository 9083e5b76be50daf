package sqlstore

import (
	"context"
	"strings"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type users struct{ s *Store }

func (u users) Upsert(ctx context.Context, in models.UserUpsert) (*models.User, bool, error) {
	db, err := u.s.conn(ctx)
	if err != nil {
		return nil, false, err
	}

	var row userRow
	inserted := false
	err = db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", in.Email).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = userRow{
				ID:        uuid.NewString(),
				Name:      in.Name,
				Email:     in.Email,
				Photo:     in.Photo,
				Role:      string(in.Role),
				CreatedAt: in.Now.UTC(),
				LastLogin: in.Now.UTC(),
			}
			inserted = true
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		row.Name, row.Photo, row.LastLogin = in.Name, in.Photo, in.Now.UTC()
		return tx.Model(&userRow{}).Where("id = ?", row.ID).Updates(map[string]any{
			"name":       row.Name,
			"photo":      row.Photo,
			"last_login": row.LastLogin,
		}).Error
	})
	if err != nil {
		return nil, false, translate(err, "upsert user")
	}
	return row.toModel(), inserted, nil
}

func (u users) GetByID(ctx context.Context, id string) (*models.User, error) {
	return u.getBy(ctx, "id = ?", id)
}

func (u users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.getBy(ctx, "email = ?", email)
}

func (u users) getBy(ctx context.Context, cond string, arg any) (*models.User, error) {
	db, err := u.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var row userRow
	if err := db.Where(cond, arg).Take(&row).Error; err != nil {
		return nil, translate(err, "find user")
	}
	return row.toModel(), nil
}

func (u users) Search(ctx context.Context, emailPart string, limit int) ([]*models.User, error) {
	db, err := u.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	pattern := "%" + escapeLike(strings.ToLower(emailPart)) + "%"
	var rows []userRow
	err = db.Where(`LOWER(email) LIKE ? ESCAPE '\'`, pattern).
		Order("email asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "search users")
	}
	out := make([]*models.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (u users) SetRole(ctx context.Context, id string, role models.UserRole) (storage.UpdateResult, error) {
	return u.setRole(ctx, "id = ?", id, role)
}

func (u users) SetRoleByEmail(ctx context.Context, email string, role models.UserRole) (storage.UpdateResult, error) {
	return u.setRole(ctx, "email = ?", email, role)
}

func (u users) setRole(ctx context.Context, cond string, arg any, role models.UserRole) (storage.UpdateResult, error) {
	db, err := u.s.conn(ctx)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	res := db.Model(&userRow{}).Where(cond, arg).Update("role", string(role))
	if res.Error != nil {
		return storage.UpdateResult{}, translate(res.Error, "set role")
	}
	return storage.UpdateResult{MatchedCount: res.RowsAffected, ModifiedCount: res.RowsAffected}, nil
}
