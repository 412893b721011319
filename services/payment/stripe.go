package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"servana/models"
	"servana/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway on Stripe PaymentIntents with manual
// capture. The hold reference is the PaymentIntent id; the charge
// reference is the same id once captured.
type StripeGateway struct{}

// NewStripeGateway constructs the production gateway. stripe.Key must
// already be set from config.
func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

// minorUnits converts a decimal amount into the currency's minor unit.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Authorize creates a manual-capture PaymentIntent for the amount.
func (g *StripeGateway) Authorize(ctx context.Context, req models.AuthorizationRequest) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(minorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to authorize %.2f %s: %w", req.Amount, req.Currency, err)
	}
	return pi.ID, nil
}

// Capture captures the full held amount.
func (g *StripeGateway) Capture(ctx context.Context, holdRef string) (string, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey("capture-" + holdRef)

	pi, err := paymentintent.Capture(holdRef, params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to capture hold %s: %w", holdRef, err)
	}
	return pi.ID, nil
}

// Release cancels an uncaptured PaymentIntent.
func (g *StripeGateway) Release(ctx context.Context, holdRef string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	params.SetIdempotencyKey("release-" + holdRef)

	if _, err := paymentintent.Cancel(holdRef, params); err != nil {
		return fmt.Errorf("stripe: failed to release hold %s: %w", holdRef, err)
	}
	return nil
}

// Refund returns amount against a captured PaymentIntent. A zero amount
// is a no-op.
func (g *StripeGateway) Refund(ctx context.Context, chargeRef string, amount float64, currency string) error {
	if amount <= 0 {
		return nil
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeRef),
		Amount:        stripe.Int64(minorUnits(amount)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("refund-%s-%d", chargeRef, minorUnits(amount)))

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("stripe: failed to refund %.2f %s on %s: %w", amount, currency, chargeRef, err)
	}
	utils.GetLogger().Info("refund issued",
		zap.String("chargeRef", chargeRef), zap.Float64("amount", amount), zap.String("currency", currency))
	return nil
}
