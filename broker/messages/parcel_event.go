package messages

import "time"

// Event types published on the parcel topic
const (
	ParcelCreated   = "parcel.created"
	ParcelPaid      = "parcel.paid"
	ParcelAssigned  = "parcel.assigned"
	ParcelDelivered = "parcel.delivered"
	RiderApproved   = "rider.approved"
)

type ParcelEvent struct {
	Type       string    `json:"type"`
	TrackingID string    `json:"tracking_id,omitempty"`
	ParcelID   string    `json:"parcel_id,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	RiderEmail string    `json:"rider_email,omitempty"`
	RiderID    string    `json:"rider_id,omitempty"`
	PaymentID  string    `json:"payment_id,omitempty"`
	Amount     *float64  `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key partitions events of one parcel (or rider) together
func (e ParcelEvent) Key() string {
	switch {
	case e.TrackingID != "":
		return e.TrackingID
	case e.ParcelID != "":
		return e.ParcelID
	}
	return e.RiderID
}
