package sqlstore

import (
	"time"

	"parcel-delivery-api/models"
)

type userRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Photo     string
	Role      string    `gorm:"not null;default:'user'"`
	CreatedAt time.Time `gorm:"column:created_at"`
	LastLogin time.Time `gorm:"column:last_login"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Photo:     r.Photo,
		Role:      models.UserRole(r.Role),
		CreatedAt: r.CreatedAt.UTC(),
		LastLogin: r.LastLogin.UTC(),
	}
}

type riderRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"index"`
	Phone     string
	Region    string    `gorm:"index:idx_riders_status_region,priority:2"`
	Status    string    `gorm:"index:idx_riders_status_region,priority:1"`
	CreatedAt time.Time `gorm:"column:created_at"`
	Details   string    `gorm:"type:text"`
}

func (riderRow) TableName() string { return "riders" }

func riderFromModel(r *models.Rider) riderRow {
	return riderRow{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Region:    r.Region,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		Details:   encodeDetails(r.Details),
	}
}

func (r riderRow) toModel() *models.Rider {
	return &models.Rider{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Region:    r.Region,
		Status:    models.RiderStatus(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		Details:   decodeDetails(r.Details),
	}
}

type parcelRow struct {
	ID             string     `gorm:"primaryKey;size:64"`
	TrackingID     string     `gorm:"column:tracking_id;uniqueIndex;not null"`
	UserEmail      string     `gorm:"column:user_email;index"`
	CreationDate   time.Time  `gorm:"column:creation_date;index"`
	DeliveryStatus string     `gorm:"column:delivery_status;index"`
	PaymentStatus  string     `gorm:"column:payment_status"`
	AssignedRider  *string    `gorm:"column:assigned_rider;index"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`
	Details        string     `gorm:"type:text"`
}

func (parcelRow) TableName() string { return "parcels" }

func parcelFromModel(p *models.Parcel) parcelRow {
	return parcelRow{
		ID:             p.ID,
		TrackingID:     p.TrackingID,
		UserEmail:      p.UserEmail,
		CreationDate:   p.CreationDate.UTC(),
		DeliveryStatus: string(p.DeliveryStatus),
		PaymentStatus:  string(p.PaymentStatus),
		AssignedRider:  p.AssignedRider,
		DeliveredAt:    utcPtr(p.DeliveredAt),
		Details:        encodeDetails(p.Details),
	}
}

func (r parcelRow) toModel() *models.Parcel {
	return &models.Parcel{
		ID:             r.ID,
		TrackingID:     r.TrackingID,
		UserEmail:      r.UserEmail,
		CreationDate:   r.CreationDate.UTC(),
		DeliveryStatus: models.DeliveryStatus(r.DeliveryStatus),
		PaymentStatus:  models.PaymentStatus(r.PaymentStatus),
		AssignedRider:  r.AssignedRider,
		DeliveredAt:    utcPtr(r.DeliveredAt),
		Details:        decodeDetails(r.Details),
	}
}

type paymentRow struct {
	ID         string    `gorm:"primaryKey;size:64"`
	TrackingID string    `gorm:"column:tracking_id;uniqueIndex;not null"`
	UserEmail  string    `gorm:"column:user_email;index"`
	Amount     float64
	PaidAt     time.Time `gorm:"column:paid_at;index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	Details    string    `gorm:"type:text"`
}

func (paymentRow) TableName() string { return "payments" }

func paymentFromModel(p *models.Payment) paymentRow {
	return paymentRow{
		ID:         p.ID,
		TrackingID: p.TrackingID,
		UserEmail:  p.UserEmail,
		Amount:     p.Amount,
		PaidAt:     p.PaidAt.UTC(),
		CreatedAt:  p.CreatedAt.UTC(),
		Details:    encodeDetails(p.Details),
	}
}

func (r paymentRow) toModel() *models.Payment {
	return &models.Payment{
		ID:         r.ID,
		TrackingID: r.TrackingID,
		UserEmail:  r.UserEmail,
		Amount:     r.Amount,
		PaidAt:     r.PaidAt.UTC(),
		CreatedAt:  r.CreatedAt.UTC(),
		Details:    decodeDetails(r.Details),
	}
}
