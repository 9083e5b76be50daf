package models

import "time"

// Payment is an append-only record written once per completed payment.
// It keeps a copy of the parcel payload the client submitted.
type Payment struct {
	ID         string    `json:"_id" bson:"_id,omitempty"`
	TrackingID string    `json:"tracking_id" bson:"tracking_id"`
	UserEmail  string    `json:"user_email" bson:"user_email"`
	Amount     float64   `json:"amount" bson:"amount"`
	PaidAt     time.Time `json:"paid_at" bson:"paid_at"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`

	Details map[string]any `json:"-" bson:",inline"`
}

var paymentKeys = map[string]bool{
	"_id": true, "tracking_id": true, "user_email": true, "amount": true, "paid_at": true, "created_at": true,
}

type paymentJSON Payment

func (p Payment) MarshalJSON() ([]byte, error) {
	return marshalFlat(paymentJSON(p), p.Details)
}

func (p *Payment) UnmarshalJSON(data []byte) error {
	var core paymentJSON
	details, err := unmarshalFlat(data, &core, paymentKeys)
	if err != nil {
		return err
	}
	*p = Payment(core)
	p.Details = details
	return nil
}
