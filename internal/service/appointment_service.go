package service

import (
	"context"
	"fmt"

	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/internal/repository/unitofwork"
	"star-booking-be/pkg/slottime"
	"star-booking-be/pkg/timezone"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

type IAppointmentService interface {
	Create(ctx context.Context, actor entity.Actor, req *dto.CreateAppointmentRequest) (*dto.CreateAppointmentResponse, error)
	Approve(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error)
	Reject(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error)
	Reschedule(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	AddDuration(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.AddDurationRequest) (*dto.AddDurationResponse, error)
	List(ctx context.Context, actor entity.Actor, req *dto.ListAppointmentsRequest) (*dto.AppointmentListResponse, error)
	Get(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error)
}

const (
	defaultPageLimit = 10
	logModule        = "APPOINTMENT"
)

type appointmentService struct {
	uowFactory        unitofwork.RepositoryFactory
	ledger            IPaymentLedger
	profiles          IStarProfileProvider
	notifier          INotificationService
	pager             IAppointmentPager
	clock             clock.Clock
	logger            logger.ILogger
	completionSeconds int64
}

func NewAppointmentService(
	uowFactory unitofwork.RepositoryFactory,
	ledger IPaymentLedger,
	profiles IStarProfileProvider,
	notifier INotificationService,
	pager IAppointmentPager,
	clk clock.Clock,
	log logger.ILogger,
	completionSeconds int64,
) IAppointmentService {
	return &appointmentService{
		uowFactory:        uowFactory,
		ledger:            ledger,
		profiles:          profiles,
		notifier:          notifier,
		pager:             pager,
		clock:             clk,
		logger:            log,
		completionSeconds: completionSeconds,
	}
}

// Create books a slot. Payment is opened first; the slot is then claimed with a
// compare-and-set so that only one of several concurrent bookers wins.
func (s *appointmentService) Create(ctx context.Context, actor entity.Actor, req *dto.CreateAppointmentRequest) (*dto.CreateAppointmentResponse, error) {
	if actor.Role != entity.UserRoleFan {
		return nil, apperror.Forbidden("only fans can book appointments")
	}

	profile, err := s.profiles.Get(ctx, req.StarId)
	if err != nil {
		return nil, err
	}
	if profile.Price <= 0 {
		return nil, apperror.BadRequest("star is not accepting paid appointments")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	fan, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: actor.UserId})
	if err != nil {
		return nil, err
	}
	if fan == nil {
		return nil, apperror.NotFound("user not found")
	}
	if fan.Phone == "" {
		return nil, apperror.BadRequest("a phone number is required to book an appointment")
	}

	availability, slot, err := s.loadSlot(ctx, uow, req.StarId, req.AvailabilityId, req.TimeSlotId)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookable(profile, availability.Date, slot); err != nil {
		return nil, err
	}
	utcStart, err := timezone.ToUTC(availability.Date, slot.Slot, profile.Country)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	appointmentId := uuid.New()
	outcome, err := s.ledger.CreateHybridTransaction(ctx, dto.CreateTransactionRequest{
		Type:        entity.TransactionTypeAppointment,
		PayerId:     fan.Id,
		ReceiverId:  profile.Id,
		Amount:      profile.Price,
		Description: fmt.Sprintf("Appointment with %s on %s %s", profile.Name, availability.Date, slot.Slot),
		Metadata: map[string]interface{}{
			"appointment_id":  appointmentId.String(),
			"availability_id": availability.Id.String(),
			"time_slot_id":    slot.Id.String(),
		},
		Payer: dto.PayerContact{Name: fan.FullName, Email: fan.Email, Phone: fan.Phone},
	})
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	txId := outcome.TransactionID()
	transition := entity.SlotTransition{
		SlotId: slot.Id,
		From:   []entity.SlotStatus{entity.SlotStatusAvailable},
		To:     entity.SlotStatusUnavailable,
	}
	paymentStatus := entity.AppointmentPaymentPending
	if _, hybrid := outcome.(entity.HybridPayment); hybrid {
		transition.To = entity.SlotStatusLocked
		transition.Lock = &entity.SlotLock{PaymentReferenceId: txId.String(), LockedAt: s.clock.Now().UTC()}
		paymentStatus = entity.AppointmentPaymentInitiated
	}

	appointment := &entity.Appointment{
		Id:             appointmentId,
		StarId:         profile.Id,
		FanId:          fan.Id,
		AvailabilityId: availability.Id,
		TimeSlotId:     slot.Id,
		Date:           availability.Date,
		Time:           slot.Slot,
		UtcStartTime:   &utcStart,
		Status:         entity.AppointmentStatusPending,
		PaymentStatus:  paymentStatus,
		Price:          profile.Price,
		TransactionId:  &txId,
	}

	if err := s.claimSlotAndInsert(ctx, transition, appointment); err != nil {
		s.compensatePayment(ctx, outcome)
		return nil, err
	}

	s.logger.Info(logModule, "Appointment booked", map[string]interface{}{
		"appointment_id": appointment.Id.String(),
		"star_id":        appointment.StarId.String(),
		"fan_id":         appointment.FanId.String(),
		"payment_mode":   string(outcome.Mode()),
	})

	if outcome.Mode() == entity.PaymentModeCoin {
		if err := s.notifier.AppointmentBooked(ctx, appointment, profile, fan.FullName); err != nil {
			s.warn("Failed to notify star of booking", appointment, err)
		}
	}

	res := &dto.CreateAppointmentResponse{
		Appointment:   dto.ToAppointmentResponse(appointment),
		PaymentMode:   outcome.Mode(),
		TransactionId: txId,
	}
	if hybrid, ok := outcome.(entity.HybridPayment); ok {
		res.ExternalAmount = hybrid.ExternalAmount
		res.RedirectURL = hybrid.RedirectURL
	}
	return res, nil
}

func (s *appointmentService) claimSlotAndInsert(ctx context.Context, transition entity.SlotTransition, appointment *entity.Appointment) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	claimed, err := uow.AvailabilityRepository().TransitionSlot(ctx, transition)
	if err != nil {
		return err
	}
	if !claimed {
		return apperror.Conflict("time slot is no longer available")
	}
	if err := uow.AppointmentRepository().Create(ctx, appointment); err != nil {
		return err
	}
	return uow.Commit()
}

// compensatePayment undoes a payment whose booking could not be stored.
func (s *appointmentService) compensatePayment(ctx context.Context, outcome entity.PaymentOutcome) {
	var err error
	switch outcome.(type) {
	case entity.CoinPayment:
		err = s.ledger.RefundTransaction(ctx, outcome.TransactionID())
	case entity.HybridPayment:
		err = s.ledger.CancelTransaction(ctx, outcome.TransactionID())
	}
	if err != nil {
		s.logger.Error(logModule, "Failed to compensate payment of unbooked slot", map[string]interface{}{
			"transaction_id": outcome.TransactionID().String(),
			"error":          err.Error(),
		})
	}
}

func (s *appointmentService) loadSlot(ctx context.Context, uow unitofwork.UnitOfWork, starId, availabilityId, slotId uuid.UUID) (*entity.Availability, *entity.TimeSlot, error) {
	availability, err := uow.AvailabilityRepository().FindOne(ctx,
		specification.ByID{ID: availabilityId},
		specification.UserOwnedBy{UserID: starId},
	)
	if err != nil {
		return nil, nil, err
	}
	if availability == nil {
		return nil, nil, apperror.NotFound("availability not found for this star")
	}
	slot := availability.SlotById(slotId)
	if slot == nil {
		return nil, nil, apperror.NotFound("time slot not found")
	}
	return availability, slot, nil
}

// checkBookable rejects past dates, started slots and slots that are not available.
func (s *appointmentService) checkBookable(profile *entity.StarProfile, date string, slot *entity.TimeSlot) error {
	now := s.clock.Now().UTC()
	today := timezone.Today(now, profile.Country)
	if date < today {
		return apperror.BadRequest("cannot book an appointment on a past date")
	}
	if date == today {
		local := timezone.LocalNow(now, profile.Country)
		startMinutes, err := slottime.StartMinutes(slot.Slot)
		if err != nil {
			return apperror.BadRequest(err.Error())
		}
		if startMinutes <= local.Hour()*60+local.Minute() {
			return apperror.BadRequest("time slot has already started")
		}
	}

	switch slot.Status {
	case entity.SlotStatusLocked:
		return apperror.Conflict("time slot is temporarily locked, wait for the payment timeout")
	case entity.SlotStatusUnavailable:
		return apperror.Conflict("time slot is unavailable")
	}
	return nil
}

func (s *appointmentService) Approve(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && appointment.StarId != actor.UserId {
		return nil, apperror.Forbidden("only the booked star can approve this appointment")
	}
	if appointment.Status != entity.AppointmentStatusPending {
		return nil, apperror.BadRequest("only pending appointments can be approved")
	}
	if appointment.PaymentStatus == entity.AppointmentPaymentInitiated {
		return nil, apperror.BadRequest("payment for this appointment has not been completed")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	approved := entity.AppointmentStatusApproved
	ok, err := uow.AppointmentRepository().UpdateIf(ctx, id,
		entity.AppointmentCondition{
			Statuses:        []entity.AppointmentStatus{entity.AppointmentStatusPending},
			PaymentStatuses: []entity.AppointmentPaymentStatus{entity.AppointmentPaymentPending, entity.AppointmentPaymentCompleted},
		},
		entity.AppointmentPatch{Status: &approved},
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("appointment was changed by another request, please refresh")
	}
	if err := uow.AvailabilityRepository().SetSlotStatus(ctx, appointment.TimeSlotId, entity.SlotStatusUnavailable); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	appointment.Status = approved
	if err := s.notifier.AppointmentApproved(ctx, appointment); err != nil {
		s.warn("Failed to notify fan of approval", appointment, err)
	}
	return dto.ToAppointmentResponse(appointment), nil
}

// Reject settles the status first; refunds, slot release and notification are best effort.
func (s *appointmentService) Reject(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && appointment.StarId != actor.UserId {
		return nil, apperror.Forbidden("only the booked star can reject this appointment")
	}
	if appointment.Status != entity.AppointmentStatusPending {
		return nil, apperror.BadRequest("only pending appointments can be rejected")
	}
	if appointment.PaymentStatus == entity.AppointmentPaymentInitiated {
		return nil, apperror.BadRequest("payment for this appointment has not been completed")
	}

	rejected := entity.AppointmentStatusRejected
	refunded := entity.AppointmentPaymentRefunded
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ok, err := uow.AppointmentRepository().UpdateIf(ctx, id,
		entity.AppointmentCondition{
			Statuses:        []entity.AppointmentStatus{entity.AppointmentStatusPending},
			PaymentStatuses: []entity.AppointmentPaymentStatus{appointment.PaymentStatus},
		},
		entity.AppointmentPatch{Status: &rejected, PaymentStatus: &refunded},
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("appointment was changed by another request, please refresh")
	}

	previousPayment := appointment.PaymentStatus
	appointment.Status = rejected
	appointment.PaymentStatus = refunded

	if previousPayment == entity.AppointmentPaymentPending {
		if err := s.ledger.RefundEscrow(ctx, appointment.StarId, appointment.Id); err != nil {
			s.warn("Failed to refund escrow", appointment, err)
		}
	}
	s.settleTransaction(ctx, appointment, true)
	s.releaseSlot(ctx, appointment)

	if err := s.notifier.AppointmentRejected(ctx, appointment); err != nil {
		s.warn("Failed to notify fan of rejection", appointment, err)
	}
	return dto.ToAppointmentResponse(appointment), nil
}

// Cancel is open to the fan and admins for any live status. An appointment replaced by a
// fan reschedule is closed; its escrow belongs to the replacement.
func (s *appointmentService) Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && appointment.FanId != actor.UserId {
		return nil, apperror.Forbidden("only the fan who booked can cancel this appointment")
	}
	if appointment.Status == entity.AppointmentStatusCancelled {
		return nil, apperror.BadRequest("appointment is already cancelled")
	}
	if appointment.Superseded() {
		return nil, apperror.BadRequest("appointment was replaced by a reschedule, cancel the new appointment instead")
	}

	cancelled := entity.AppointmentStatusCancelled
	patch := entity.AppointmentPatch{Status: &cancelled}
	escrowHeld := appointment.HoldsEscrow()
	if escrowHeld {
		refunded := entity.AppointmentPaymentRefunded
		patch.PaymentStatus = &refunded
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	ok, err := uow.AppointmentRepository().UpdateIf(ctx, id,
		entity.AppointmentCondition{
			Statuses:        []entity.AppointmentStatus{appointment.Status},
			PaymentStatuses: []entity.AppointmentPaymentStatus{appointment.PaymentStatus},
		},
		patch,
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("appointment was changed by another request, please refresh")
	}

	heldSlot := appointment.HoldsSlot()
	previousPayment := appointment.PaymentStatus
	appointment.Status = cancelled
	if patch.PaymentStatus != nil {
		appointment.PaymentStatus = *patch.PaymentStatus
	}

	if escrowHeld {
		if err := s.ledger.RefundEscrow(ctx, appointment.StarId, appointment.Id); err != nil {
			s.warn("Failed to refund escrow", appointment, err)
		}
	}
	// a settlement that lands after the status flip completes the transaction without
	// confirming anything, so it is refunded here
	s.settleTransaction(ctx, appointment, previousPayment == entity.AppointmentPaymentInitiated)
	if heldSlot {
		s.releaseSlot(ctx, appointment)
	}

	if err := s.notifier.AppointmentCancelled(ctx, appointment); err != nil {
		s.warn("Failed to notify of cancellation", appointment, err)
	}
	return dto.ToAppointmentResponse(appointment), nil
}

// settleTransaction cancels a still-open transaction. With refundCompleted a completed
// transaction is refunded as well.
func (s *appointmentService) settleTransaction(ctx context.Context, appointment *entity.Appointment, refundCompleted bool) {
	if appointment.TransactionId == nil {
		return
	}
	tx, err := s.ledger.GetTransaction(ctx, *appointment.TransactionId)
	if err != nil {
		s.warn("Failed to load transaction", appointment, err)
		return
	}
	if tx == nil {
		return
	}

	switch {
	case tx.Status.Open():
		err = s.ledger.CancelTransaction(ctx, tx.Id)
	case tx.Status == entity.TransactionStatusCompleted && refundCompleted:
		err = s.ledger.RefundTransaction(ctx, tx.Id)
	}
	if err != nil {
		s.warn("Failed to settle transaction", appointment, err)
	}
}

func (s *appointmentService) releaseSlot(ctx context.Context, appointment *entity.Appointment) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	_, err := uow.AvailabilityRepository().TransitionSlot(ctx, entity.SlotTransition{
		SlotId: appointment.TimeSlotId,
		From:   []entity.SlotStatus{entity.SlotStatusUnavailable, entity.SlotStatusLocked},
		To:     entity.SlotStatusAvailable,
	})
	if err != nil {
		s.warn("Failed to release time slot", appointment, err)
	}
}

// Reschedule moves the booking to another slot of the same star. The old appointment is
// closed, the new slot claimed, the old slot released and the new appointment inserted in
// one transaction.
func (s *appointmentService) Reschedule(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	original, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && original.FanId != actor.UserId {
		return nil, apperror.Forbidden("only the fan who booked can reschedule this appointment")
	}

	profile, err := s.profiles.Get(ctx, original.StarId)
	if err != nil {
		return nil, err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	availability, slot, err := s.loadSlot(ctx, uow, original.StarId, req.AvailabilityId, req.TimeSlotId)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookable(profile, availability.Date, slot); err != nil {
		return nil, err
	}
	utcStart, err := timezone.ToUTC(availability.Date, slot.Slot, profile.Country)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	parentId := original.Id
	replacement := &entity.Appointment{
		Id:                  uuid.New(),
		StarId:              original.StarId,
		FanId:               original.FanId,
		AvailabilityId:      availability.Id,
		TimeSlotId:          slot.Id,
		Date:                availability.Date,
		Time:                slot.Slot,
		UtcStartTime:        &utcStart,
		Status:              entity.AppointmentStatusPending,
		PaymentStatus:       entity.AppointmentPaymentCompleted,
		Price:               original.Price,
		TransactionId:       original.TransactionId,
		IsRescheduled:       true,
		ParentAppointmentId: &parentId,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	rescheduled := entity.AppointmentStatusRescheduled
	reason := entity.RescheduleReasonFanRequest
	ok, err := uow.AppointmentRepository().UpdateIf(ctx, original.Id,
		entity.AppointmentCondition{Statuses: []entity.AppointmentStatus{original.Status}},
		entity.AppointmentPatch{Status: &rescheduled, RescheduleReason: &reason},
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("appointment was changed by another request, please refresh")
	}

	claimed, err := uow.AvailabilityRepository().TransitionSlot(ctx, entity.SlotTransition{
		SlotId: slot.Id,
		From:   []entity.SlotStatus{entity.SlotStatusAvailable},
		To:     entity.SlotStatusUnavailable,
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperror.Conflict("time slot is no longer available")
	}

	if original.HoldsSlot() && original.TimeSlotId != slot.Id {
		if _, err := uow.AvailabilityRepository().TransitionSlot(ctx, entity.SlotTransition{
			SlotId: original.TimeSlotId,
			From:   []entity.SlotStatus{entity.SlotStatusUnavailable, entity.SlotStatusLocked},
			To:     entity.SlotStatusAvailable,
		}); err != nil {
			return nil, err
		}
	}

	if err := uow.AppointmentRepository().Create(ctx, replacement); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info(logModule, "Appointment rescheduled", map[string]interface{}{
		"appointment_id":        replacement.Id.String(),
		"parent_appointment_id": original.Id.String(),
	})
	if err := s.notifier.AppointmentRescheduled(ctx, replacement); err != nil {
		s.warn("Failed to notify of reschedule", replacement, err)
	}
	return dto.ToAppointmentResponse(replacement), nil
}

// AddDuration accumulates call seconds with an atomic increment. The first report moves an
// approved appointment to in_progress; completion itself is left to reconciliation.
func (s *appointmentService) AddDuration(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.AddDurationRequest) (*dto.AddDurationResponse, error) {
	if req.Duration == nil || *req.Duration < 0 {
		return nil, apperror.BadRequest("duration must be a non-negative number of seconds")
	}
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && appointment.FanId != actor.UserId && appointment.StarId != actor.UserId {
		return nil, apperror.Forbidden("you are not a participant of this appointment")
	}
	if !containsStatus(entity.DurationStatuses, appointment.Status) {
		return nil, apperror.BadRequest("call duration can only be recorded for approved appointments")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AppointmentRepository()
	ok, err := repo.IncrementCallDuration(ctx, id, *req.Duration, entity.DurationStatuses)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.BadRequest("call duration can only be recorded for approved appointments")
	}

	inProgress := entity.AppointmentStatusInProgress
	if _, err := repo.UpdateIf(ctx, id,
		entity.AppointmentCondition{Statuses: []entity.AppointmentStatus{entity.AppointmentStatusApproved}},
		entity.AppointmentPatch{Status: &inProgress},
	); err != nil {
		return nil, err
	}

	updated, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("appointment not found")
	}

	return &dto.AddDurationResponse{
		AppointmentId:    updated.Id,
		CallDuration:     updated.CallDuration,
		IsFullyCompleted: updated.CallDuration >= s.completionSeconds,
		Status:           updated.PublicStatus(),
	}, nil
}

func (s *appointmentService) List(ctx context.Context, actor entity.Actor, req *dto.ListAppointmentsRequest) (*dto.AppointmentListResponse, error) {
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}

	specs := visibilitySpecs(actor)
	if req.Status != "" {
		statuses := []entity.AppointmentStatus{entity.AppointmentStatus(req.Status)}
		if statuses[0] == entity.AppointmentStatusApproved {
			statuses = append(statuses, entity.AppointmentStatusInProgress)
		}
		specs = append(specs, specification.ByAppointmentStatuses{Statuses: statuses})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	items, total, err := s.pager.Page(ctx, uow.AppointmentRepository(), page, limit, specs...)
	if err != nil {
		return nil, err
	}
	return &dto.AppointmentListResponse{
		Items: dto.ToAppointmentResponses(items),
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *appointmentService) Get(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
	case appointment.FanId == actor.UserId:
	case appointment.StarId == actor.UserId:
		if appointment.PaymentStatus == entity.AppointmentPaymentInitiated {
			return nil, apperror.Forbidden("payment for this appointment has not been completed")
		}
	default:
		return nil, apperror.Forbidden("you cannot view this appointment")
	}
	return dto.ToAppointmentResponse(appointment), nil
}

// visibilitySpecs: fans see their own bookings, stars see theirs once paid, admins see all.
func visibilitySpecs(actor entity.Actor) []specification.Specification {
	switch actor.Role {
	case entity.UserRoleAdmin:
		return []specification.Specification{}
	case entity.UserRoleStar:
		return []specification.Specification{
			specification.ByStarID{StarID: actor.UserId},
			specification.PaymentStatusNot{Status: entity.AppointmentPaymentInitiated},
		}
	default:
		return []specification.Specification{specification.ByFanID{FanID: actor.UserId}}
	}
}

func (s *appointmentService) load(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	appointment, err := uow.AppointmentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, apperror.NotFound("appointment not found")
	}
	return appointment, nil
}

func (s *appointmentService) warn(message string, appointment *entity.Appointment, err error) {
	s.logger.Warn(logModule, message, map[string]interface{}{
		"appointment_id": appointment.Id.String(),
		"error":          err.Error(),
	})
}

func containsStatus(statuses []entity.AppointmentStatus, status entity.AppointmentStatus) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}
