package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/repository/contract"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/internal/repository/unitofwork"
	"star-booking-be/pkg/slottime"
	"star-booking-be/pkg/timezone"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

type IAvailabilityService interface {
	Upsert(ctx context.Context, actor entity.Actor, req *dto.UpsertAvailabilityRequest) ([]*dto.AvailabilityResponse, error)
	SwitchMode(ctx context.Context, actor entity.Actor, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error)
	DeleteSlot(ctx context.Context, actor entity.Actor, req *dto.DeleteSlotRequest) (*dto.DeleteSlotResponse, error)
	DeleteSlotById(ctx context.Context, actor entity.Actor, slotId uuid.UUID) (*dto.DeleteSlotResponse, error)
	GetAvailability(ctx context.Context, starId uuid.UUID, from string) ([]*dto.AvailabilityResponse, error)
}

type availabilityService struct {
	uowFactory unitofwork.RepositoryFactory
	profiles   IStarProfileProvider
	clock      clock.Clock
	logger     logger.ILogger
}

func NewAvailabilityService(
	uowFactory unitofwork.RepositoryFactory,
	profiles IStarProfileProvider,
	clk clock.Clock,
	log logger.ILogger,
) IAvailabilityService {
	return &availabilityService{
		uowFactory: uowFactory,
		profiles:   profiles,
		clock:      clk,
		logger:     log,
	}
}

type normalizedSlot struct {
	slot   string
	status entity.SlotStatus
}

func (s *availabilityService) Upsert(ctx context.Context, actor entity.Actor, req *dto.UpsertAvailabilityRequest) ([]*dto.AvailabilityResponse, error) {
	if actor.Role != entity.UserRoleStar {
		return nil, apperror.Forbidden("only stars can manage availability")
	}
	mode := req.Mode
	if mode == "" {
		mode = entity.RecurrenceSpecific
	}

	start, err := time.Parse(timezone.DateLayout, req.Date)
	if err != nil {
		return nil, apperror.BadRequest("date must be in YYYY-MM-DD format")
	}

	slots := make([]normalizedSlot, 0, len(req.TimeSlots))
	seen := make(map[string]int, len(req.TimeSlots))
	for _, in := range req.TimeSlots {
		canonical, err := slottime.Normalize(in.Slot)
		if err != nil {
			return nil, apperror.BadRequest(err.Error())
		}
		if in.Status != "" && !in.Status.Valid() {
			return nil, apperror.BadRequest(fmt.Sprintf("invalid slot status %q", in.Status))
		}
		if idx, dup := seen[canonical]; dup {
			if in.Status != "" {
				slots[idx].status = in.Status
			}
			continue
		}
		seen[canonical] = len(slots)
		slots = append(slots, normalizedSlot{slot: canonical, status: in.Status})
	}

	profile, err := s.profiles.Get(ctx, actor.UserId)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	today := timezone.Today(now, profile.Country)
	if req.Date < today {
		return nil, apperror.BadRequest("cannot create availability for a past date")
	}
	if req.Date == today {
		local := timezone.LocalNow(now, profile.Country)
		nowMinutes := local.Hour()*60 + local.Minute()
		for _, ns := range slots {
			startMinutes, _ := slottime.StartMinutes(ns.slot)
			if startMinutes <= nowMinutes {
				return nil, apperror.BadRequest(fmt.Sprintf("time slot %s has already started", ns.slot))
			}
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	conflicting, err := uow.AvailabilityRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: actor.UserId},
		specification.DateFrom{Date: today},
		specification.NotRecurrence{Mode: mode},
	)
	if err != nil {
		return nil, err
	}
	if len(conflicting) > 0 {
		if _, err := s.SwitchMode(ctx, actor, &dto.SwitchModeRequest{Mode: mode}); err != nil {
			return nil, err
		}
	}

	count, step := mode.Occurrences()
	dates := make([]string, count)
	for i := 0; i < count; i++ {
		dates[i] = start.AddDate(0, 0, i*step).Format(timezone.DateLayout)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	for _, date := range dates {
		if err := s.upsertDate(ctx, uow, actor.UserId, date, mode, slots); err != nil {
			if errors.Is(err, contract.ErrDuplicate) {
				return nil, apperror.Conflict("availability was changed concurrently, retry")
			}
			return nil, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	saved, err := uow.AvailabilityRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: actor.UserId},
		specification.ByDates{Dates: dates},
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("AVAILABILITY", "Availability upserted", map[string]interface{}{
		"star_id": actor.UserId.String(),
		"date":    req.Date,
		"mode":    string(mode),
		"dates":   len(dates),
	})
	return dto.ToAvailabilityResponses(saved), nil
}

// upsertDate merges slots into the availability for one date. Existing slots keep
// their status unless a different one is given explicitly.
func (s *availabilityService) upsertDate(ctx context.Context, uow unitofwork.UnitOfWork, starId uuid.UUID, date string, mode entity.RecurrenceMode, slots []normalizedSlot) error {
	repo := uow.AvailabilityRepository()
	existing, err := repo.FindOne(ctx, specification.UserOwnedBy{UserID: starId}, specification.ByDate{Date: date})
	if err != nil {
		return err
	}

	if existing == nil {
		weekly, daily := mode.Flags()
		availability := &entity.Availability{
			UserId:   starId,
			Date:     date,
			IsWeekly: weekly,
			IsDaily:  daily,
		}
		for _, ns := range slots {
			status := ns.status
			if status == "" {
				status = entity.SlotStatusAvailable
			}
			availability.TimeSlots = append(availability.TimeSlots, &entity.TimeSlot{Slot: ns.slot, Status: status})
		}
		return repo.Create(ctx, availability)
	}

	if existing.Mode() != mode {
		if err := repo.UpdateRecurrence(ctx, existing.Id, mode); err != nil {
			return err
		}
	}

	for _, ns := range slots {
		current := existing.SlotByString(ns.slot)
		if current == nil {
			status := ns.status
			if status == "" {
				status = entity.SlotStatusAvailable
			}
			if err := repo.AddSlot(ctx, &entity.TimeSlot{AvailabilityId: existing.Id, Slot: ns.slot, Status: status}); err != nil {
				return err
			}
			continue
		}
		if ns.status == "" || ns.status == current.Status {
			continue
		}
		active, err := s.hasActiveAppointment(ctx, uow, current.Id)
		if err != nil {
			return err
		}
		if active {
			return apperror.BadRequest(fmt.Sprintf("time slot %s on %s has an active appointment", ns.slot, date))
		}
		if err := repo.SetSlotStatus(ctx, current.Id, ns.status); err != nil {
			return err
		}
	}
	return nil
}

// SwitchMode removes future availabilities of other recurrence modes. It refuses while
// any future slot still has an active appointment.
func (s *availabilityService) SwitchMode(ctx context.Context, actor entity.Actor, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error) {
	if actor.Role != entity.UserRoleStar {
		return nil, apperror.Forbidden("only stars can manage availability")
	}
	profile, err := s.profiles.Get(ctx, actor.UserId)
	if err != nil {
		return nil, err
	}
	today := timezone.Today(s.clock.Now().UTC(), profile.Country)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	future, err := uow.AvailabilityRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: actor.UserId},
		specification.DateFrom{Date: today},
	)
	if err != nil {
		return nil, err
	}

	slotIds := make([]uuid.UUID, 0)
	stale := make([]*entity.Availability, 0)
	for _, a := range future {
		for _, ts := range a.TimeSlots {
			slotIds = append(slotIds, ts.Id)
		}
		if a.Mode() != req.Mode {
			stale = append(stale, a)
		}
	}

	if len(slotIds) > 0 {
		active, err := uow.AppointmentRepository().Count(ctx,
			specification.ByTimeSlotIDs{IDs: slotIds},
			specification.ByAppointmentStatuses{Statuses: entity.ActiveAppointmentStatuses},
		)
		if err != nil {
			return nil, err
		}
		if active > 0 {
			return nil, apperror.BadRequest(fmt.Sprintf("resolve %d active appointment(s) before switching availability mode", active))
		}
	}

	if len(stale) > 0 {
		if err := uow.Begin(ctx); err != nil {
			return nil, err
		}
		defer uow.Rollback()

		for _, a := range stale {
			if err := uow.AvailabilityRepository().Delete(ctx, a.Id); err != nil {
				return nil, err
			}
		}
		if err := uow.Commit(); err != nil {
			return nil, err
		}
	}

	s.logger.Info("AVAILABILITY", "Availability mode switched", map[string]interface{}{
		"star_id": actor.UserId.String(),
		"mode":    string(req.Mode),
		"deleted": len(stale),
	})
	return &dto.SwitchModeResponse{Mode: req.Mode, Deleted: len(stale)}, nil
}

func (s *availabilityService) DeleteSlot(ctx context.Context, actor entity.Actor, req *dto.DeleteSlotRequest) (*dto.DeleteSlotResponse, error) {
	if actor.Role != entity.UserRoleStar {
		return nil, apperror.Forbidden("only stars can manage availability")
	}
	canonical, err := slottime.Normalize(req.Slot)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	availability, err := uow.AvailabilityRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: actor.UserId},
		specification.ByDate{Date: req.Date},
	)
	if err != nil {
		return nil, err
	}
	if availability == nil {
		return nil, apperror.NotFound("availability not found for this date")
	}
	slot := availability.SlotByString(canonical)
	if slot == nil {
		return nil, apperror.NotFound("time slot not found")
	}
	return s.deleteWithSiblings(ctx, uow, actor, availability, slot)
}

func (s *availabilityService) DeleteSlotById(ctx context.Context, actor entity.Actor, slotId uuid.UUID) (*dto.DeleteSlotResponse, error) {
	if actor.Role != entity.UserRoleStar {
		return nil, apperror.Forbidden("only stars can manage availability")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	slot, err := uow.AvailabilityRepository().FindSlot(ctx, specification.ByID{ID: slotId})
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, apperror.NotFound("time slot not found")
	}
	availability, err := uow.AvailabilityRepository().FindOne(ctx,
		specification.ByID{ID: slot.AvailabilityId},
		specification.UserOwnedBy{UserID: actor.UserId},
	)
	if err != nil {
		return nil, err
	}
	if availability == nil {
		return nil, apperror.NotFound("time slot not found")
	}
	return s.deleteWithSiblings(ctx, uow, actor, availability, slot)
}

// deleteWithSiblings removes the slot and, for recurring availabilities, the same slot on
// every future sibling date. Siblings with an active appointment are skipped.
func (s *availabilityService) deleteWithSiblings(ctx context.Context, uow unitofwork.UnitOfWork, actor entity.Actor, availability *entity.Availability, slot *entity.TimeSlot) (*dto.DeleteSlotResponse, error) {
	if slot.Status != entity.SlotStatusAvailable {
		active, err := s.hasActiveAppointment(ctx, uow, slot.Id)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, apperror.BadRequest("time slot has an active appointment and cannot be deleted")
		}
	}

	siblings, err := s.findSiblings(ctx, uow, actor, availability)
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	res := &dto.DeleteSlotResponse{Skipped: make([]dto.SkippedSlot, 0)}
	if err := s.removeSlot(ctx, uow, availability.Id, slot.Id); err != nil {
		return nil, err
	}
	res.Deleted++

	for _, sibling := range siblings {
		ts := sibling.SlotByString(slot.Slot)
		if ts == nil {
			continue
		}
		active, err := s.hasActiveAppointment(ctx, uow, ts.Id)
		if err != nil {
			return nil, err
		}
		if active {
			s.logger.Warn("AVAILABILITY", "Skipping sibling slot with active appointment", map[string]interface{}{
				"star_id": actor.UserId.String(),
				"date":    sibling.Date,
				"slot":    ts.Slot,
			})
			res.Skipped = append(res.Skipped, dto.SkippedSlot{Date: sibling.Date, Slot: ts.Slot, Reason: "active appointment"})
			continue
		}
		if err := s.removeSlot(ctx, uow, sibling.Id, ts.Id); err != nil {
			return nil, err
		}
		res.Deleted++
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *availabilityService) findSiblings(ctx context.Context, uow unitofwork.UnitOfWork, actor entity.Actor, availability *entity.Availability) ([]*entity.Availability, error) {
	mode := availability.Mode()
	if mode == entity.RecurrenceSpecific {
		return nil, nil
	}
	profile, err := s.profiles.Get(ctx, actor.UserId)
	if err != nil {
		return nil, err
	}

	candidates, err := uow.AvailabilityRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: actor.UserId},
		specification.ByRecurrence{Mode: mode},
		specification.DateFrom{Date: timezone.Today(s.clock.Now().UTC(), profile.Country)},
		specification.ExcludeID{ID: availability.Id},
	)
	if err != nil {
		return nil, err
	}
	if mode == entity.RecurrenceDaily {
		return candidates, nil
	}

	day, err := time.Parse(timezone.DateLayout, availability.Date)
	if err != nil {
		return nil, err
	}
	siblings := make([]*entity.Availability, 0, len(candidates))
	for _, c := range candidates {
		d, err := time.Parse(timezone.DateLayout, c.Date)
		if err == nil && d.Weekday() == day.Weekday() {
			siblings = append(siblings, c)
		}
	}
	return siblings, nil
}

// removeSlot deletes the slot and drops the availability once it has no slots left.
func (s *availabilityService) removeSlot(ctx context.Context, uow unitofwork.UnitOfWork, availabilityId, slotId uuid.UUID) error {
	repo := uow.AvailabilityRepository()
	if err := repo.DeleteSlot(ctx, slotId); err != nil {
		return err
	}
	remaining, err := repo.CountSlots(ctx, availabilityId)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return repo.Delete(ctx, availabilityId)
	}
	return nil
}

func (s *availabilityService) hasActiveAppointment(ctx context.Context, uow unitofwork.UnitOfWork, slotId uuid.UUID) (bool, error) {
	count, err := uow.AppointmentRepository().Count(ctx,
		specification.ByTimeSlotID{ID: slotId},
		specification.ByAppointmentStatuses{Statuses: entity.ActiveAppointmentStatuses},
	)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *availabilityService) GetAvailability(ctx context.Context, starId uuid.UUID, from string) ([]*dto.AvailabilityResponse, error) {
	profile, err := s.profiles.Get(ctx, starId)
	if err != nil {
		return nil, err
	}
	if from == "" {
		from = timezone.Today(s.clock.Now().UTC(), profile.Country)
	} else if _, err := time.Parse(timezone.DateLayout, from); err != nil {
		return nil, apperror.BadRequest("from must be in YYYY-MM-DD format")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	items, err := uow.AvailabilityRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: starId},
		specification.DateFrom{Date: from},
	)
	if err != nil {
		return nil, err
	}
	return dto.ToAvailabilityResponses(items), nil
}
