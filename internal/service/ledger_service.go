package service

import (
	"context"
	"fmt"

	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/pkg/gateway"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IPaymentLedger is the wallet, transaction and escrow ledger appointments pay through.
// Every call runs in its own database transaction; callers must not hold one open.
type IPaymentLedger interface {
	CreateHybridTransaction(ctx context.Context, req dto.CreateTransactionRequest) (entity.PaymentOutcome, error)
	CompleteTransaction(ctx context.Context, id uuid.UUID) error
	CancelTransaction(ctx context.Context, id uuid.UUID) error
	RefundTransaction(ctx context.Context, id uuid.UUID) error
	MoveEscrowToJackpot(ctx context.Context, starId, appointmentId uuid.UUID) error
	RefundEscrow(ctx context.Context, starId, appointmentId uuid.UUID) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
}

const metadataAppointmentID = "appointment_id"

type ledgerService struct {
	uowFactory unitofwork.RepositoryFactory
	gateway    gateway.PaymentGateway
	logger     logger.ILogger
}

func NewLedgerService(uowFactory unitofwork.RepositoryFactory, gw gateway.PaymentGateway, log logger.ILogger) IPaymentLedger {
	return &ledgerService{
		uowFactory: uowFactory,
		gateway:    gw,
		logger:     log,
	}
}

// CreateHybridTransaction settles from coins when the payer can afford the full amount.
// Otherwise the whole coin balance is reserved and the rest is collected by the gateway.
func (s *ledgerService) CreateHybridTransaction(ctx context.Context, req dto.CreateTransactionRequest) (entity.PaymentOutcome, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if req.PayerId == req.ReceiverId {
		return nil, fmt.Errorf("payer and receiver must differ")
	}
	appointmentId, err := appointmentIDFromMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	wallet, err := uow.LedgerRepository().FindWallet(ctx, req.PayerId)
	if err != nil {
		return nil, err
	}
	balance := 0.0
	if wallet != nil {
		balance = wallet.Coins
	}

	if balance >= req.Amount {
		return s.payWithCoins(ctx, req, appointmentId)
	}
	return s.payHybrid(ctx, req, balance)
}

func (s *ledgerService) payWithCoins(ctx context.Context, req dto.CreateTransactionRequest, appointmentId uuid.UUID) (entity.PaymentOutcome, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.LedgerRepository()
	ok, err := repo.DebitCoins(ctx, req.PayerId, req.Amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("insufficient coin balance")
	}

	tx := &entity.Transaction{
		Type:        req.Type,
		PayerId:     req.PayerId,
		ReceiverId:  req.ReceiverId,
		Amount:      req.Amount,
		CoinAmount:  req.Amount,
		Status:      entity.TransactionStatusCompleted,
		PaymentMode: entity.PaymentModeCoin,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.holdEscrow(ctx, uow, tx, appointmentId); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("LEDGER", "Coin payment completed", map[string]interface{}{
		"transaction_id": tx.Id.String(),
		"payer_id":       req.PayerId.String(),
		"amount":         req.Amount,
	})
	return entity.CoinPayment{TransactionId: tx.Id}, nil
}

func (s *ledgerService) payHybrid(ctx context.Context, req dto.CreateTransactionRequest, balance float64) (entity.PaymentOutcome, error) {
	coinPart := balance
	if coinPart < 0 {
		coinPart = 0
	}
	externalPart := req.Amount - coinPart
	txId := uuid.New()

	link, err := s.gateway.CreatePaymentLink(ctx, gateway.PaymentLinkRequest{
		OrderId:    txId.String(),
		Amount:     externalPart,
		ItemId:     fmt.Sprintf("%v", req.Metadata[metadataAppointmentID]),
		ItemName:   req.Description,
		PayerName:  req.Payer.Name,
		PayerEmail: req.Payer.Email,
		PayerPhone: req.Payer.Phone,
	})
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.LedgerRepository()
	if coinPart > 0 {
		ok, err := repo.DebitCoins(ctx, req.PayerId, coinPart)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("coin balance changed, please retry")
		}
	}

	externalId := link.ExternalPaymentId
	tx := &entity.Transaction{
		Id:                txId,
		Type:              req.Type,
		PayerId:           req.PayerId,
		ReceiverId:        req.ReceiverId,
		Amount:            req.Amount,
		CoinAmount:        coinPart,
		ExternalAmount:    externalPart,
		Status:            entity.TransactionStatusInitiated,
		PaymentMode:       entity.PaymentModeHybrid,
		ExternalPaymentId: &externalId,
		Description:       req.Description,
		Metadata:          req.Metadata,
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("LEDGER", "Hybrid payment initiated", map[string]interface{}{
		"transaction_id":  tx.Id.String(),
		"coin_amount":     coinPart,
		"external_amount": externalPart,
	})
	return entity.HybridPayment{
		TransactionId:     tx.Id,
		ExternalPaymentId: externalId,
		ExternalAmount:    externalPart,
		CoinAmount:        coinPart,
		RedirectURL:       link.RedirectURL,
	}, nil
}

func (s *ledgerService) CompleteTransaction(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	repo := uow.LedgerRepository()
	tx, err := s.findTransaction(ctx, uow, id)
	if err != nil {
		return err
	}
	if tx.Status == entity.TransactionStatusCompleted {
		return nil
	}

	ok, err := repo.TransitionTransaction(ctx, id, []entity.TransactionStatus{entity.TransactionStatusPending, entity.TransactionStatusInitiated}, entity.TransactionStatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transaction %s is %s and cannot be completed", id, tx.Status)
	}

	appointmentId, err := appointmentIDFromMetadata(tx.Metadata)
	if err != nil {
		return err
	}
	if err := s.holdEscrow(ctx, uow, tx, appointmentId); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *ledgerService) CancelTransaction(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	repo := uow.LedgerRepository()
	tx, err := s.findTransaction(ctx, uow, id)
	if err != nil {
		return err
	}
	if tx.Status == entity.TransactionStatusCancelled {
		return nil
	}

	ok, err := repo.TransitionTransaction(ctx, id, []entity.TransactionStatus{entity.TransactionStatusPending, entity.TransactionStatusInitiated}, entity.TransactionStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transaction %s is %s and cannot be cancelled", id, tx.Status)
	}

	if tx.CoinAmount > 0 {
		if err := repo.AdjustWallet(ctx, tx.PayerId, entity.WalletDelta{Coins: tx.CoinAmount}); err != nil {
			return err
		}
	}
	return uow.Commit()
}

// RefundTransaction returns a completed payment to the payer. Escrow already refunded
// is not paid twice; escrow already moved to the jackpot blocks the refund.
func (s *ledgerService) RefundTransaction(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	repo := uow.LedgerRepository()
	tx, err := s.findTransaction(ctx, uow, id)
	if err != nil {
		return err
	}
	if tx.Status == entity.TransactionStatusRefunded {
		return nil
	}

	hold, err := repo.FindEscrow(ctx, specification.ByTransactionID{ID: id})
	if err != nil {
		return err
	}
	if hold != nil && hold.Status == entity.EscrowStatusReleased {
		return fmt.Errorf("escrow for transaction %s was already released to the star", id)
	}

	ok, err := repo.TransitionTransaction(ctx, id, []entity.TransactionStatus{entity.TransactionStatusCompleted}, entity.TransactionStatusRefunded)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transaction %s is %s and cannot be refunded", id, tx.Status)
	}

	if hold != nil && hold.Status == entity.EscrowStatusHeld {
		if err := s.returnEscrow(ctx, uow, hold); err != nil {
			return err
		}
	}
	return uow.Commit()
}

func (s *ledgerService) MoveEscrowToJackpot(ctx context.Context, starId, appointmentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	hold, err := s.findHeldEscrow(ctx, uow, starId, appointmentId)
	if err != nil {
		return err
	}

	repo := uow.LedgerRepository()
	ok, err := repo.TransitionEscrow(ctx, hold.Id, entity.EscrowStatusHeld, entity.EscrowStatusReleased)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("escrow %s is no longer held", hold.Id)
	}
	if err := repo.AdjustWallet(ctx, hold.StarId, entity.WalletDelta{Escrow: -hold.Amount, Jackpot: hold.Amount}); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *ledgerService) RefundEscrow(ctx context.Context, starId, appointmentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	hold, err := s.findHeldEscrow(ctx, uow, starId, appointmentId)
	if err != nil {
		return err
	}
	if err := s.returnEscrow(ctx, uow, hold); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *ledgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.LedgerRepository().FindTransaction(ctx, specification.ByID{ID: id})
}

func (s *ledgerService) findTransaction(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Transaction, error) {
	tx, err := uow.LedgerRepository().FindTransaction(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, apperror.NotFound(fmt.Sprintf("transaction %s not found", id))
	}
	return tx, nil
}

func (s *ledgerService) holdEscrow(ctx context.Context, uow unitofwork.UnitOfWork, tx *entity.Transaction, appointmentId uuid.UUID) error {
	repo := uow.LedgerRepository()
	hold := &entity.EscrowHold{
		StarId:        tx.ReceiverId,
		FanId:         tx.PayerId,
		AppointmentId: appointmentId,
		TransactionId: tx.Id,
		Amount:        tx.Amount,
		Status:        entity.EscrowStatusHeld,
	}
	if err := repo.CreateEscrow(ctx, hold); err != nil {
		return err
	}
	return repo.AdjustWallet(ctx, tx.ReceiverId, entity.WalletDelta{Escrow: tx.Amount})
}

func (s *ledgerService) returnEscrow(ctx context.Context, uow unitofwork.UnitOfWork, hold *entity.EscrowHold) error {
	repo := uow.LedgerRepository()
	ok, err := repo.TransitionEscrow(ctx, hold.Id, entity.EscrowStatusHeld, entity.EscrowStatusRefunded)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("escrow %s is no longer held", hold.Id)
	}
	if err := repo.AdjustWallet(ctx, hold.StarId, entity.WalletDelta{Escrow: -hold.Amount}); err != nil {
		return err
	}
	return repo.AdjustWallet(ctx, hold.FanId, entity.WalletDelta{Coins: hold.Amount})
}

// findHeldEscrow looks the hold up by appointment. An appointment created by a reschedule
// shares its parent's transaction, so the hold is then found through that transaction.
func (s *ledgerService) findHeldEscrow(ctx context.Context, uow unitofwork.UnitOfWork, starId, appointmentId uuid.UUID) (*entity.EscrowHold, error) {
	repo := uow.LedgerRepository()
	hold, err := repo.FindEscrow(ctx, specification.ByAppointmentID{ID: appointmentId}, specification.ByStarID{StarID: starId})
	if err != nil {
		return nil, err
	}
	if hold == nil {
		appointment, err := uow.AppointmentRepository().FindOne(ctx, specification.ByID{ID: appointmentId})
		if err != nil {
			return nil, err
		}
		if appointment != nil && appointment.TransactionId != nil {
			hold, err = repo.FindEscrow(ctx, specification.ByTransactionID{ID: *appointment.TransactionId}, specification.ByStarID{StarID: starId})
			if err != nil {
				return nil, err
			}
		}
	}
	if hold == nil {
		return nil, fmt.Errorf("no escrow found for appointment %s", appointmentId)
	}
	if hold.Status != entity.EscrowStatusHeld {
		return nil, fmt.Errorf("escrow for appointment %s is %s", appointmentId, hold.Status)
	}
	return hold, nil
}

func appointmentIDFromMetadata(metadata map[string]interface{}) (uuid.UUID, error) {
	raw, ok := metadata[metadataAppointmentID]
	if !ok {
		return uuid.Nil, fmt.Errorf("transaction metadata is missing %s", metadataAppointmentID)
	}
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid %s in transaction metadata", metadataAppointmentID)
		}
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("invalid %s in transaction metadata", metadataAppointmentID)
}
