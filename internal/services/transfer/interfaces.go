package transfer

import (
	"context"

	"github.com/Joaovitor12j/simplified-platform/internal/models"
	"github.com/Joaovitor12j/simplified-platform/internal/money"

	"github.com/google/uuid"
)

// Authorizer asks the external oracle for permission to complete a transfer.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// Notifier schedules a "transaction completed" notification. Dispatch is
// fire-and-forget; delivery retries are the dispatcher's concern.
type Notifier interface {
	Dispatch(txn *models.Transaction)
}

// Service moves money between two user wallets.
type Service interface {
	Execute(ctx context.Context, payerID, payeeID uuid.UUID, amount money.Money) (*models.Transaction, error)
}
