package ports

import (
	"context"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
)

type PaymentGateway interface {
	// Charge attempts to collect amountCents from the card. A decline returns
	// domain.ErrPaymentDeclined; the caller records the outcome on the
	// reservation rather than rolling anything back.
	Charge(ctx context.Context, card domain.CardDetails, amountCents int64) error
}
