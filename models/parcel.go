package models

import (
	"errors"
	"time"
)

// DeliveryStatus represents the delivery lifecycle of a parcel
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryDelivered DeliveryStatus = "delivered"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryAssigned, DeliveryDelivered:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

type Parcel struct {
	ID             string         `json:"_id" bson:"_id,omitempty"`
	TrackingID     string         `json:"tracking_id" bson:"tracking_id"`
	UserEmail      string         `json:"user_email" bson:"user_email"`
	CreationDate   time.Time      `json:"creation_date" bson:"creation_date"`
	DeliveryStatus DeliveryStatus `json:"delivery_status" bson:"delivery_status"`
	PaymentStatus  PaymentStatus  `json:"payment_status" bson:"payment_status"`
	AssignedRider  *string        `json:"assigned_rider" bson:"assigned_rider"`
	DeliveredAt    *time.Time     `json:"delivered_at" bson:"delivered_at"`

	// Details holds sender/receiver data, cost and anything else the client sent
	Details map[string]any `json:"-" bson:",inline"`
}

// Parcel document keys
const (
	ParcelID             = "_id"
	ParcelTrackingID     = "tracking_id"
	ParcelUserEmail      = "user_email"
	ParcelCreationDate   = "creation_date"
	ParcelDeliveryStatus = "delivery_status"
	ParcelPaymentStatus  = "payment_status"
	ParcelAssignedRider  = "assigned_rider"
	ParcelDeliveredAt    = "delivered_at"
)

var parcelKeys = map[string]bool{
	ParcelID: true, ParcelTrackingID: true, ParcelUserEmail: true, ParcelCreationDate: true,
	ParcelDeliveryStatus: true, ParcelPaymentStatus: true, ParcelAssignedRider: true, ParcelDeliveredAt: true,
}

// IsParcelKey reports whether key is stored as a typed parcel field
func IsParcelKey(key string) bool { return parcelKeys[key] }

type parcelJSON Parcel

func (p Parcel) MarshalJSON() ([]byte, error) {
	return marshalFlat(parcelJSON(p), p.Details)
}

func (p *Parcel) UnmarshalJSON(data []byte) error {
	var core parcelJSON
	details, err := unmarshalFlat(data, &core, parcelKeys)
	if err != nil {
		return err
	}
	*p = Parcel(core)
	p.Details = details
	return nil
}

var ErrPaymentStatusManaged = errors.New("payment_status can only be changed by completing a payment")

// NormalizeParcelFields validates a client-supplied partial update and converts
// typed fields to their stored representation. _id is dropped.
func NormalizeParcelFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case ParcelID:
			continue
		case ParcelPaymentStatus:
			return nil, invalid(ErrPaymentStatusManaged)
		case ParcelTrackingID, ParcelUserEmail:
			s, err := stringField(k, v)
			if err != nil {
				return nil, invalid(err)
			}
			if k == ParcelTrackingID && s == "" {
				return nil, &ValidationError{Msg: "tracking_id cannot be empty"}
			}
			out[k] = s
		case ParcelAssignedRider:
			if v == nil {
				out[k] = nil
				continue
			}
			s, err := stringField(k, v)
			if err != nil {
				return nil, invalid(err)
			}
			out[k] = s
		case ParcelCreationDate:
			t, err := parseTimeField(k, v)
			if err != nil {
				return nil, invalid(err)
			}
			out[k] = t
		case ParcelDeliveredAt:
			if v == nil {
				out[k] = nil
				continue
			}
			t, err := parseTimeField(k, v)
			if err != nil {
				return nil, invalid(err)
			}
			out[k] = t
		case ParcelDeliveryStatus:
			s, err := stringField(k, v)
			if err != nil {
				return nil, invalid(err)
			}
			if !DeliveryStatus(s).Valid() {
				return nil, &ValidationError{Msg: "delivery_status must be one of pending, assigned, delivered"}
			}
			out[k] = DeliveryStatus(s)
		default:
			out[k] = v
		}
	}
	return out, nil
}
