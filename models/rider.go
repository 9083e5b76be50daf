package models

import "time"

type RiderStatus string

const (
	RiderPending  RiderStatus = "pending"
	RiderApproved RiderStatus = "approved"
)

func (s RiderStatus) Valid() bool {
	return s == RiderPending || s == RiderApproved
}

type Rider struct {
	ID        string      `json:"_id" bson:"_id,omitempty"`
	Name      string      `json:"name" bson:"name"`
	Email     string      `json:"email" bson:"email"`
	Phone     string      `json:"phone,omitempty" bson:"phone,omitempty"`
	Region    string      `json:"region" bson:"region"`
	Status    RiderStatus `json:"status" bson:"status"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`

	// Details keeps the rest of the registration form (age, NID, bike, ...)
	Details map[string]any `json:"-" bson:",inline"`
}

const (
	RiderID        = "_id"
	RiderName      = "name"
	RiderEmail     = "email"
	RiderPhone     = "phone"
	RiderRegion    = "region"
	RiderStatusKey = "status"
	RiderCreatedAt = "created_at"
)

var riderKeys = map[string]bool{
	RiderID: true, RiderName: true, RiderEmail: true, RiderPhone: true,
	RiderRegion: true, RiderStatusKey: true, RiderCreatedAt: true,
}

func IsRiderKey(key string) bool { return riderKeys[key] }

type riderJSON Rider

func (r Rider) MarshalJSON() ([]byte, error) {
	return marshalFlat(riderJSON(r), r.Details)
}

func (r *Rider) UnmarshalJSON(data []byte) error {
	var core riderJSON
	details, err := unmarshalFlat(data, &core, riderKeys)
	if err != nil {
		return err
	}
	*r = Rider(core)
	r.Details = details
	return nil
}

// NormalizeRiderFields validates a partial rider update. _id and created_at
// are immutable and dropped; status must be a known value.
func NormalizeRiderFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case RiderID, RiderCreatedAt:
			continue
		case RiderName, RiderEmail, RiderPhone, RiderRegion:
			s, err := stringField(k, v)
			if err != nil {
				return nil, invalid(err)
			}
			out[k] = s
		case RiderStatusKey:
			s, err := stringField(k, v)
			if err != nil {
				return nil, invalid(err)
			}
			if !RiderStatus(s).Valid() {
				return nil, &ValidationError{Msg: "status must be pending or approved"}
			}
			out[k] = RiderStatus(s)
		default:
			out[k] = v
		}
	}
	return out, nil
}
