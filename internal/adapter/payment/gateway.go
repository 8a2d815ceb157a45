package payment

import (
	"context"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"
)

// acceptedCVV is the demo gateway rule: a CVV of "123" is charged
// successfully, anything else is declined.
const acceptedCVV = "123"

// DummyGateway simulates a card processor. It never moves money; it only
// produces accept/decline outcomes so the reservation lifecycle can be
// exercised end to end.
type DummyGateway struct {
	logger ports.LoggerPort
}

func NewDummyGateway(logger ports.LoggerPort) *DummyGateway {
	return &DummyGateway{
		logger: logger,
	}
}

func (g *DummyGateway) Charge(ctx context.Context, card domain.CardDetails, amountCents int64) error {
	// simulated processor latency
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	if card.CVV != acceptedCVV {
		g.logger.Info("Charge declined by gateway", map[string]interface{}{
			"amount_cents": amountCents,
		})
		return domain.ErrPaymentDeclined
	}

	g.logger.Info("Charge accepted by gateway", map[string]interface{}{
		"amount_cents": amountCents,
	})
	return nil
}
