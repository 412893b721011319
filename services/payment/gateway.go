package payment

import (
	"context"

	"servana/models"
)

// Gateway is the payment-authorization collaborator of the booking
// engine: it creates a manual-capture hold, then captures, releases or
// refunds it. Implementations must tolerate retries with the same
// idempotency key.
type Gateway interface {
	// Authorize places a hold and returns its reference.
	Authorize(ctx context.Context, req models.AuthorizationRequest) (string, error)
	// Capture converts the hold into a charge and returns the charge
	// reference.
	Capture(ctx context.Context, holdRef string) (string, error)
	// Release cancels a hold without charging. Best-effort: a failed
	// release lapses at the gateway on its own.
	Release(ctx context.Context, holdRef string) error
	// Refund returns amount against a captured charge.
	Refund(ctx context.Context, chargeRef string, amount float64, currency string) error
}
