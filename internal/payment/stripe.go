package payment

import (
	"fmt"
	"strings"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

type StripePaymentProvider struct{}

func NewStripePaymentProvider() *StripePaymentProvider {
	return &StripePaymentProvider{}
}

func (s *StripePaymentProvider) CreatePaymentIntent(
	sessionID string,
	details domain.CheckoutDetails) (*stripe.PaymentIntent, error) {

	amountMinor := details.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(details.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		Description: stripe.String(fmt.Sprintf(
			"🎬 %s • %s • %s %s • Seats %s",
			details.MovieTitle,
			details.Theater,
			details.Date,
			details.TimeLabel,
			strings.Join(details.Seats, ", "),
		)),
		Metadata: map[string]string{
			"session_id": sessionID,
			"theater":    details.Theater,
			"show_date":  details.Date,
			"show_time":  details.TimeLabel,
		},
	}

	return paymentintent.New(params)
}
