package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
	"github.com/Leganyst/easycars/internal/repository"
	"github.com/Leganyst/easycars/internal/utils"
)

// RentalService runs the rental lifecycle:
//
//	pending -> active -> completed
//	pending|active -> cancelled
//
// A pending or active rental keeps its car unavailable.
type RentalService struct {
	db *gorm.DB

	cars    repository.CarRepository
	rentals repository.RentalRepository

	gate     access.Gate
	activity ActivityRecorder
	now      func() time.Time
}

func NewRentalService(db *gorm.DB, gate access.Gate, activity ActivityRecorder) *RentalService {
	return &RentalService{
		db:       db,
		cars:     repository.NewGormCarRepository(db),
		rentals:  repository.NewGormRentalRepository(db),
		gate:     gateOrDefault(gate),
		activity: recorderOrNop(activity),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateRentalInput struct {
	CarID         uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	PaymentMethod string
}

// RentalQuery narrows ListRentals. Mine limits the result to rentals the
// actor booked, whatever the role.
type RentalQuery struct {
	Mine   bool
	CarID  *uuid.UUID
	Status model.RentalStatus
}

func (s *RentalService) CreateRental(ctx context.Context, actor access.Actor, in CreateRentalInput) (*model.Rental, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if in.PaymentMethod != "" && !model.ValidRentalPayment(in.PaymentMethod) {
		return nil, fail(ErrInvalidInput, "unsupported payment method %q", in.PaymentMethod)
	}

	car, err := s.cars.GetByID(ctx, in.CarID)
	if err != nil {
		return nil, lookupErr("car", err)
	}
	if !car.ForRent || !car.Available {
		return nil, fail(ErrInvalidState, "car is not available for rent")
	}

	period, err := utils.NewTimeRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, fail(ErrInvalidInput, "%s", utils.ErrInvalidTimeRange.Error())
	}
	days := period.Days()
	if days <= 0 {
		return nil, fail(ErrInvalidInput, "rental must last at least one day")
	}
	if !car.RentalPrice.HasDailyRate() {
		return nil, fail(ErrInvalidState, "car has no daily rental rate")
	}

	rental := &model.Rental{
		CarID:         car.ID,
		UserID:        actor.UserID,
		StartDate:     period.Start,
		EndDate:       period.End,
		TotalPrice:    car.RentalPrice.Daily.Decimal.Mul(decimal.NewFromInt(days)),
		PaymentMethod: in.PaymentMethod,
		Status:        model.RentalStatusPending,
		PaymentStatus: model.RentalPaymentPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewGormCarRepository(tx).ReserveForRental(ctx, car.ID); err != nil {
			return err
		}
		return repository.NewGormRentalRepository(tx).Create(ctx, rental)
	})
	if errors.Is(err, repository.ErrCarUnavailable) {
		return nil, fail(ErrInvalidState, "car is not available for rent")
	}
	if err != nil {
		return nil, writeErr("create rental", err)
	}

	car.Available = false
	rental.Car = car

	s.activity.Record(ctx, entry(actor.UserID, "Rental created", model.ResourceRental, rental.ID, map[string]any{
		"carId":      car.ID.String(),
		"days":       days,
		"totalPrice": rental.TotalPrice.String(),
	}))

	return rental, nil
}

func (s *RentalService) CancelRental(ctx context.Context, actor access.Actor, rentalID uuid.UUID) (*model.Rental, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	rental, err := s.rentals.GetByID(ctx, rentalID)
	if err != nil {
		return nil, lookupErr("rental", err)
	}
	if err := authorize(s.gate, actor, access.CancelRental, access.OwnedBy(rental.UserID)); err != nil {
		return nil, err
	}
	if rental.Terminal() {
		return nil, fail(ErrInvalidState, "rental cannot be cancelled")
	}

	now := s.now()
	carReleased := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := repository.NewGormRentalRepository(tx).Transition(ctx, rental.ID, repository.RentalTransition{
			From:          []model.RentalStatus{model.RentalStatusPending, model.RentalStatusActive},
			To:            model.RentalStatusCancelled,
			PaymentStatus: model.RentalPaymentRefunded,
			CancelledAt:   &now,
		})
		if err != nil {
			return err
		}
		carReleased, err = repository.NewGormCarRepository(tx).Release(ctx, rental.CarID)
		return err
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, fail(ErrInvalidState, "rental cannot be cancelled")
	}
	if err != nil {
		return nil, writeErr("cancel rental", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Rental cancelled", model.ResourceRental, rental.ID, map[string]any{
		"carId":       rental.CarID.String(),
		"carReleased": carReleased,
	}))

	return s.loadRental(ctx, rental.ID)
}

// DeleteRental removes the record. A rental that was still holding its car
// gives it back.
func (s *RentalService) DeleteRental(ctx context.Context, actor access.Actor, rentalID uuid.UUID) error {
	if err := authorize(s.gate, actor, access.DeleteRental, access.Resource{}); err != nil {
		return err
	}

	rental, err := s.rentals.GetByID(ctx, rentalID)
	if err != nil {
		return lookupErr("rental", err)
	}

	carReleased := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewGormRentalRepository(tx).Delete(ctx, rental.ID); err != nil {
			return err
		}
		if !rental.HoldsCar() {
			return nil
		}
		var err error
		carReleased, err = repository.NewGormCarRepository(tx).Release(ctx, rental.CarID)
		return err
	})
	if err != nil {
		return writeErr("delete rental", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Rental deleted", model.ResourceRental, rental.ID, map[string]any{
		"carId":       rental.CarID.String(),
		"status":      string(rental.Status),
		"carReleased": carReleased,
	}))
	return nil
}

// ActivateRental confirms a pending rental once paid.
func (s *RentalService) ActivateRental(ctx context.Context, actor access.Actor, rentalID uuid.UUID) (*model.Rental, error) {
	rental, err := s.manageable(ctx, actor, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.Status != model.RentalStatusPending {
		return nil, fail(ErrInvalidState, "only pending rentals can be activated")
	}

	err = s.rentals.Transition(ctx, rental.ID, repository.RentalTransition{
		From:          []model.RentalStatus{model.RentalStatusPending},
		To:            model.RentalStatusActive,
		PaymentStatus: model.RentalPaymentPaid,
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, fail(ErrInvalidState, "only pending rentals can be activated")
	}
	if err != nil {
		return nil, writeErr("activate rental", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Rental activated", model.ResourceRental, rental.ID, nil))
	return s.loadRental(ctx, rental.ID)
}

// CompleteRental closes an active rental and puts the car back on the market.
func (s *RentalService) CompleteRental(ctx context.Context, actor access.Actor, rentalID uuid.UUID) (*model.Rental, error) {
	rental, err := s.manageable(ctx, actor, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.Status != model.RentalStatusActive {
		return nil, fail(ErrInvalidState, "only active rentals can be completed")
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := repository.NewGormRentalRepository(tx).Transition(ctx, rental.ID, repository.RentalTransition{
			From:        []model.RentalStatus{model.RentalStatusActive},
			To:          model.RentalStatusCompleted,
			CompletedAt: &now,
		})
		if err != nil {
			return err
		}
		_, err = repository.NewGormCarRepository(tx).Release(ctx, rental.CarID)
		return err
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, fail(ErrInvalidState, "only active rentals can be completed")
	}
	if err != nil {
		return nil, writeErr("complete rental", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Rental completed", model.ResourceRental, rental.ID, nil))
	return s.loadRental(ctx, rental.ID)
}

func (s *RentalService) GetRental(ctx context.Context, actor access.Actor, rentalID uuid.UUID) (*model.Rental, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	rental, err := s.loadRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	owners := access.OwnedBy(rental.UserID)
	if rental.Car != nil {
		owners = access.OwnedBy(rental.UserID, rental.Car.OwnerID)
	}
	if err := authorize(s.gate, actor, access.ViewRental, owners); err != nil {
		return nil, err
	}
	return rental, nil
}

// ListRentals shows staff every rental and everyone else the rentals they
// booked or that concern their cars.
func (s *RentalService) ListRentals(ctx context.Context, actor access.Actor, q RentalQuery, p pagination.Params) (pagination.Page[model.Rental], error) {
	if err := requireActor(actor); err != nil {
		return pagination.Page[model.Rental]{}, err
	}

	f := repository.RentalFilter{CarID: q.CarID, Status: q.Status}
	switch {
	case q.Mine:
		f.RenterID = &actor.UserID
	case s.gate.Authorize(actor, access.ListAllRentals, access.Resource{}) == access.Allow:
	default:
		f.Participant = &actor.UserID
	}

	rentals, total, err := s.rentals.List(ctx, f, p.Limit(), p.Offset())
	if err != nil {
		return pagination.Page[model.Rental]{}, err
	}
	if err := s.attachCars(ctx, rentals); err != nil {
		return pagination.Page[model.Rental]{}, err
	}
	return pagination.FromTotal(rentals, total, p), nil
}

// manageable loads a rental the actor may activate or complete
// (car owner or admin).
func (s *RentalService) manageable(ctx context.Context, actor access.Actor, rentalID uuid.UUID) (*model.Rental, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	rental, err := s.loadRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	owners := access.Resource{}
	if rental.Car != nil {
		owners = access.OwnedBy(rental.Car.OwnerID)
	}
	if err := authorize(s.gate, actor, access.ManageRental, owners); err != nil {
		return nil, err
	}
	return rental, nil
}

// loadRental fetches the rental with its car; a deleted car leaves Car nil.
func (s *RentalService) loadRental(ctx context.Context, id uuid.UUID) (*model.Rental, error) {
	rental, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("rental", err)
	}
	car, err := s.cars.GetByID(ctx, rental.CarID)
	switch {
	case err == nil:
		rental.Car = car
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, lookupErr("car", err)
	}
	return rental, nil
}

func (s *RentalService) attachCars(ctx context.Context, rentals []model.Rental) error {
	ids := make([]uuid.UUID, 0, len(rentals))
	for _, r := range rentals {
		ids = append(ids, r.CarID)
	}
	cars, err := s.cars.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*model.Car, len(cars))
	for i := range cars {
		byID[cars[i].ID] = &cars[i]
	}
	for i := range rentals {
		rentals[i].Car = byID[rentals[i].CarID]
	}
	return nil
}
