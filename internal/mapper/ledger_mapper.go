package mapper

import (
	"encoding/json"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/model"

	"gorm.io/datatypes"
)

type LedgerMapper struct{}

func NewLedgerMapper() *LedgerMapper {
	return &LedgerMapper{}
}

func (m *LedgerMapper) TransactionToEntity(t *model.LedgerTransaction) *entity.Transaction {
	if t == nil {
		return nil
	}
	var metadata map[string]interface{}
	if len(t.Metadata) > 0 {
		_ = json.Unmarshal(t.Metadata, &metadata)
	}
	return &entity.Transaction{
		Id:                t.Id,
		Type:              entity.TransactionType(t.Type),
		PayerId:           t.PayerId,
		ReceiverId:        t.ReceiverId,
		Amount:            t.Amount,
		CoinAmount:        t.CoinAmount,
		ExternalAmount:    t.ExternalAmount,
		Status:            entity.TransactionStatus(t.Status),
		PaymentMode:       entity.PaymentMode(t.PaymentMode),
		ExternalPaymentId: t.ExternalPaymentId,
		Description:       t.Description,
		Metadata:          metadata,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func (m *LedgerMapper) TransactionToModel(t *entity.Transaction) (*model.LedgerTransaction, error) {
	if t == nil {
		return nil, nil
	}
	var metadata datatypes.JSON
	if t.Metadata != nil {
		raw, err := json.Marshal(t.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = datatypes.JSON(raw)
	}
	return &model.LedgerTransaction{
		Id:                t.Id,
		Type:              string(t.Type),
		PayerId:           t.PayerId,
		ReceiverId:        t.ReceiverId,
		Amount:            t.Amount,
		CoinAmount:        t.CoinAmount,
		ExternalAmount:    t.ExternalAmount,
		Status:            string(t.Status),
		PaymentMode:       string(t.PaymentMode),
		ExternalPaymentId: t.ExternalPaymentId,
		Description:       t.Description,
		Metadata:          metadata,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}, nil
}

func (m *LedgerMapper) WalletToEntity(w *model.Wallet) *entity.Wallet {
	if w == nil {
		return nil
	}
	return &entity.Wallet{
		UserId:    w.UserId,
		Coins:     w.Coins,
		Escrow:    w.Escrow,
		Jackpot:   w.Jackpot,
		UpdatedAt: w.UpdatedAt,
	}
}

func (m *LedgerMapper) EscrowToEntity(e *model.EscrowHold) *entity.EscrowHold {
	if e == nil {
		return nil
	}
	return &entity.EscrowHold{
		Id:            e.Id,
		StarId:        e.StarId,
		FanId:         e.FanId,
		AppointmentId: e.AppointmentId,
		TransactionId: e.TransactionId,
		Amount:        e.Amount,
		Status:        entity.EscrowStatus(e.Status),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (m *LedgerMapper) EscrowToModel(e *entity.EscrowHold) *model.EscrowHold {
	if e == nil {
		return nil
	}
	return &model.EscrowHold{
		Id:            e.Id,
		StarId:        e.StarId,
		FanId:         e.FanId,
		AppointmentId: e.AppointmentId,
		TransactionId: e.TransactionId,
		Amount:        e.Amount,
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
