// Package payments talks to the card processor. Only payment intent creation
// is needed: the client confirms the card itself and reports back.
package payments

import (
	"context"
	"errors"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type Gateway interface {
	// CreateIntent returns the client secret of a new intent for amount
	// minor currency units
	CreateIntent(ctx context.Context, amountMinor int64) (string, error)
}

var ErrInvalidAmount = errors.New("amount must be greater than zero")

// Error carries the processor's own message for the caller
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// ToMinorUnits converts a major-unit amount (dollars) to rounded cents
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	minor := int64(math.Round(amount * 100))
	if minor <= 0 {
		return 0, ErrInvalidAmount
	}
	return minor, nil
}

type Stripe struct {
	api      *client.API
	currency string
}

// NewStripe builds a gateway for the given secret key. backends may be nil to
// use the default Stripe endpoints.
func NewStripe(secretKey, currency string, backends *stripe.Backends) *Stripe {
	return &Stripe{
		api:      client.New(secretKey, backends),
		currency: currency,
	}
}

func (s *Stripe) CreateIntent(ctx context.Context, amountMinor int64) (string, error) {
	if amountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(s.currency),
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Msg != "" {
			return "", &Error{Msg: se.Msg}
		}
		return "", &Error{Msg: err.Error()}
	}
	return pi.ClientSecret, nil
}
