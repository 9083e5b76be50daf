// Package storage defines the persistence contracts the handlers depend on.
// Backends live in mongostore (document store) and sqlstore (gorm).
package storage

import (
	"context"
	"errors"

	"parcel-delivery-api/models"
)

var (
	ErrNotFound       = errors.New("document not found")
	ErrDuplicate      = errors.New("duplicate key")
	ErrNotInitialized = errors.New("storage not initialized: connect before serving")
)

// SearchLimit caps user search results
const SearchLimit = 10

// UpdateResult mirrors the matched/modified counters of a document update
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type UserStore interface {
	// Upsert creates the user keyed by email or refreshes name, photo and
	// last_login of an existing one. inserted reports which happened.
	Upsert(ctx context.Context, in models.UserUpsert) (user *models.User, inserted bool, err error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Search matches a case-insensitive email substring
	Search(ctx context.Context, emailPart string, limit int) ([]*models.User, error)
	SetRole(ctx context.Context, id string, role models.UserRole) (UpdateResult, error)
	SetRoleByEmail(ctx context.Context, email string, role models.UserRole) (UpdateResult, error)
}

type RiderFilter struct {
	Status models.RiderStatus
	Region string
}

type RiderStore interface {
	Create(ctx context.Context, r *models.Rider) error
	GetByID(ctx context.Context, id string) (*models.Rider, error)
	List(ctx context.Context, f RiderFilter) ([]*models.Rider, error)
	// Update applies normalized fields to the rider with the given id,
	// optionally only while its status still equals ExpectStatus.
	Update(ctx context.Context, m RiderMatch, fields map[string]any) (UpdateResult, error)
}

type RiderMatch struct {
	ID           string
	ExpectStatus models.RiderStatus
}

// ParcelSort names the timestamp a parcel listing is ordered by, newest first
type ParcelSort string

const (
	SortByCreationDate ParcelSort = models.ParcelCreationDate
	SortByDeliveredAt  ParcelSort = models.ParcelDeliveredAt
)

type ParcelFilter struct {
	UserEmail      string
	AssignedRider  string
	DeliveryStatus models.DeliveryStatus
	PaymentStatus  models.PaymentStatus
	SortBy         ParcelSort
}

// ParcelMatch selects a single parcel for an update. Exactly one of ID and
// TrackingID is set; the other fields are preconditions.
type ParcelMatch struct {
	ID             string
	TrackingID     string
	DeliveryStatus models.DeliveryStatus
	NotPaid        bool
}

type ParcelStore interface {
	Create(ctx context.Context, p *models.Parcel) error
	GetByID(ctx context.Context, id string) (*models.Parcel, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*models.Parcel, error)
	List(ctx context.Context, f ParcelFilter) ([]*models.Parcel, error)
	Update(ctx context.Context, m ParcelMatch, fields map[string]any) (UpdateResult, error)
	DeleteByTrackingID(ctx context.Context, trackingID string) (deleted int64, err error)
}

type PaymentFilter struct {
	UserEmail string
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	List(ctx context.Context, f PaymentFilter) ([]*models.Payment, error)
}

// Store is the injected data-access object. It is constructed and connected
// once at startup and shared by every handler.
type Store interface {
	Users() UserStore
	Riders() RiderStore
	Parcels() ParcelStore
	Payments() PaymentStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
