package implementation

import (
	"context"
	"errors"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/mapper"
	"star-booking-be/internal/model"
	"star-booking-be/internal/repository/contract"
	"star-booking-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LedgerMapper
}

func NewLedgerRepository(db *gorm.DB) contract.LedgerRepository {
	return &ledgerRepositoryImpl{
		db:     db,
		mapper: mapper.NewLedgerMapper(),
	}
}

func (r *ledgerRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Wallets

func (r *ledgerRepositoryImpl) FindWallet(ctx context.Context, userId uuid.UUID) (*entity.Wallet, error) {
	var m model.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.WalletToEntity(&m), nil
}

func (r *ledgerRepositoryImpl) EnsureWallet(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Wallet{UserId: userId}).Error
}

func (r *ledgerRepositoryImpl) AdjustWallet(ctx context.Context, userId uuid.UUID, delta entity.WalletDelta) error {
	if err := r.EnsureWallet(ctx, userId); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ?", userId).
		Updates(map[string]interface{}{
			"coins":   gorm.Expr("coins + ?", delta.Coins),
			"escrow":  gorm.Expr("escrow + ?", delta.Escrow),
			"jackpot": gorm.Expr("jackpot + ?", delta.Jackpot),
		}).Error
}

func (r *ledgerRepositoryImpl) DebitCoins(ctx context.Context, userId uuid.UUID, amount float64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ? AND coins >= ?", userId, amount).
		Update("coins", gorm.Expr("coins - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Transactions

func (r *ledgerRepositoryImpl) CreateTransaction(ctx context.Context, tx *entity.Transaction) error {
	if tx.Id == uuid.Nil {
		tx.Id = uuid.New()
	}
	m, err := r.mapper.TransactionToModel(tx)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	tx.CreatedAt = m.CreatedAt
	tx.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ledgerRepositoryImpl) FindTransaction(ctx context.Context, specs ...specification.Specification) (*entity.Transaction, error) {
	var m model.LedgerTransaction
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.LedgerTransaction{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.TransactionToEntity(&m), nil
}

func (r *ledgerRepositoryImpl) TransitionTransaction(ctx context.Context, id uuid.UUID, from []entity.TransactionStatus, to entity.TransactionStatus) (bool, error) {
	values := make([]string, len(from))
	for i, s := range from {
		values[i] = string(s)
	}
	result := r.db.WithContext(ctx).Model(&model.LedgerTransaction{}).
		Where("id = ? AND status IN ?", id, values).
		Update("status", string(to))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Escrow

func (r *ledgerRepositoryImpl) CreateEscrow(ctx context.Context, hold *entity.EscrowHold) error {
	if hold.Id == uuid.Nil {
		hold.Id = uuid.New()
	}
	m := r.mapper.EscrowToModel(hold)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	hold.CreatedAt = m.CreatedAt
	hold.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ledgerRepositoryImpl) FindEscrow(ctx context.Context, specs ...specification.Specification) (*entity.EscrowHold, error) {
	var m model.EscrowHold
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.EscrowHold{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EscrowToEntity(&m), nil
}

func (r *ledgerRepositoryImpl) TransitionEscrow(ctx context.Context, id uuid.UUID, from, to entity.EscrowStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.EscrowHold{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
