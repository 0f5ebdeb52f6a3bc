package contract

import (
	"context"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/repository/specification"

	"github.com/google/uuid"
)

type LedgerRepository interface {
	FindWallet(ctx context.Context, userId uuid.UUID) (*entity.Wallet, error)
	EnsureWallet(ctx context.Context, userId uuid.UUID) error
	AdjustWallet(ctx context.Context, userId uuid.UUID, delta entity.WalletDelta) error
	// DebitCoins subtracts amount only when the balance covers it.
	DebitCoins(ctx context.Context, userId uuid.UUID, amount float64) (bool, error)

	CreateTransaction(ctx context.Context, tx *entity.Transaction) error
	FindTransaction(ctx context.Context, specs ...specification.Specification) (*entity.Transaction, error)
	TransitionTransaction(ctx context.Context, id uuid.UUID, from []entity.TransactionStatus, to entity.TransactionStatus) (bool, error)

	CreateEscrow(ctx context.Context, hold *entity.EscrowHold) error
	FindEscrow(ctx context.Context, specs ...specification.Specification) (*entity.EscrowHold, error)
	TransitionEscrow(ctx context.Context, id uuid.UUID, from, to entity.EscrowStatus) (bool, error)
}
