package fraudgate

import (
	"context"

	"ticketgate/internal/usecase/commands"

	"github.com/google/uuid"
)

// StaticGate is a rule-based risk decision: no external scoring service,
// just hard limits that stop the obvious bulk grabs. Anything it cannot
// classify is denied, never allowed.
type StaticGate struct {
	maxQuantity        int
	captchaAboveQty    int
	phoneCheckAboveQty int
}

func NewStaticGate(maxQuantity int) *StaticGate {
	return &StaticGate{
		maxQuantity:        maxQuantity,
		captchaAboveQty:    4,
		phoneCheckAboveQty: 8,
	}
}

func (g *StaticGate) Evaluate(ctx context.Context, buyerID, resourceID uuid.UUID, quantity int) (commands.FraudDecision, error) {
	switch {
	case quantity <= 0 || quantity > g.maxQuantity:
		return commands.FraudDenied, nil
	case quantity > g.phoneCheckAboveQty:
		return commands.FraudRequiresPhoneCheck, nil
	case quantity > g.captchaAboveQty:
		return commands.FraudRequiresCaptcha, nil
	default:
		return commands.FraudAllowed, nil
	}
}
