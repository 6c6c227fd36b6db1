package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
	"github.com/Leganyst/easycars/internal/repository"
)

// SaleService handles purchases. A sale is one-way: the car leaves both
// the sale and the rental market.
type SaleService struct {
	db *gorm.DB

	cars  repository.CarRepository
	sales repository.SaleRepository

	gate     access.Gate
	activity ActivityRecorder
	now      func() time.Time
}

func NewSaleService(db *gorm.DB, gate access.Gate, activity ActivityRecorder) *SaleService {
	return &SaleService{
		db:       db,
		cars:     repository.NewGormCarRepository(db),
		sales:    repository.NewGormSaleRepository(db),
		gate:     gateOrDefault(gate),
		activity: recorderOrNop(activity),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateSaleInput struct {
	CarID         uuid.UUID
	PaymentMethod string
	Notes         string
}

type SaleQuery struct {
	Mine  bool // purchases of the actor only
	CarID *uuid.UUID
}

func (s *SaleService) CreateSale(ctx context.Context, actor access.Actor, in CreateSaleInput) (*model.Sale, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !model.ValidSalePayment(in.PaymentMethod) {
		return nil, fail(ErrInvalidInput, "unsupported payment method %q", in.PaymentMethod)
	}

	car, err := s.cars.GetByID(ctx, in.CarID)
	if err != nil {
		return nil, lookupErr("car", err)
	}
	if !car.ForSale || !car.Available {
		return nil, fail(ErrInvalidState, "car is not available for sale")
	}

	sale := &model.Sale{
		CarID:         car.ID,
		BuyerID:       actor.UserID,
		SellerID:      car.OwnerID,
		Price:         car.Price,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: model.SalePaymentPending,
		Notes:         in.Notes,
		SaleDate:      s.now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewGormCarRepository(tx).MarkSold(ctx, car.ID); err != nil {
			return err
		}
		return repository.NewGormSaleRepository(tx).Create(ctx, sale)
	})
	if errors.Is(err, repository.ErrCarUnavailable) {
		return nil, fail(ErrInvalidState, "car is not available for sale")
	}
	if err != nil {
		return nil, writeErr("create sale", err)
	}

	car.Available, car.ForSale, car.ForRent = false, false, false
	sale.Car = car

	s.activity.Record(ctx, entry(actor.UserID, "Sale created", model.ResourceSale, sale.ID, map[string]any{
		"carId": car.ID.String(),
		"price": sale.Price.String(),
	}))

	return sale, nil
}

// DeleteSale removes the record and relists the car for sale. The rental
// listing flag is left as the sale left it (off).
func (s *SaleService) DeleteSale(ctx context.Context, actor access.Actor, saleID uuid.UUID) error {
	if err := authorize(s.gate, actor, access.DeleteSale, access.Resource{}); err != nil {
		return err
	}

	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return lookupErr("sale", err)
	}

	carRestored := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewGormSaleRepository(tx).Delete(ctx, sale.ID); err != nil {
			return err
		}
		var err error
		carRestored, err = repository.NewGormCarRepository(tx).RestoreAfterSaleDeletion(ctx, sale.CarID)
		return err
	})
	if err != nil {
		return writeErr("delete sale", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Sale deleted", model.ResourceSale, sale.ID, map[string]any{
		"carId":       sale.CarID.String(),
		"carRestored": carRestored,
	}))
	return nil
}

func (s *SaleService) GetSale(ctx context.Context, actor access.Actor, saleID uuid.UUID) (*model.Sale, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, lookupErr("sale", err)
	}
	if err := authorize(s.gate, actor, access.ViewSale, access.OwnedBy(sale.BuyerID, sale.SellerID)); err != nil {
		return nil, err
	}

	car, err := s.cars.GetByID(ctx, sale.CarID)
	switch {
	case err == nil:
		sale.Car = car
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, lookupErr("car", err)
	}
	return sale, nil
}

// ListSales shows staff every sale and everyone else the sales they are
// part of.
func (s *SaleService) ListSales(ctx context.Context, actor access.Actor, q SaleQuery, p pagination.Params) (pagination.Page[model.Sale], error) {
	if err := requireActor(actor); err != nil {
		return pagination.Page[model.Sale]{}, err
	}

	f := repository.SaleFilter{CarID: q.CarID}
	switch {
	case q.Mine:
		f.BuyerID = &actor.UserID
	case s.gate.Authorize(actor, access.ListAllSales, access.Resource{}) == access.Allow:
	default:
		f.Participant = &actor.UserID
	}

	sales, total, err := s.sales.List(ctx, f, p.Limit(), p.Offset())
	if err != nil {
		return pagination.Page[model.Sale]{}, err
	}

	ids := make([]uuid.UUID, 0, len(sales))
	for _, sale := range sales {
		ids = append(ids, sale.CarID)
	}
	cars, err := s.cars.ListByIDs(ctx, ids)
	if err != nil {
		return pagination.Page[model.Sale]{}, err
	}
	byID := make(map[uuid.UUID]*model.Car, len(cars))
	for i := range cars {
		byID[cars[i].ID] = &cars[i]
	}
	for i := range sales {
		sales[i].Car = byID[sales[i].CarID]
	}

	return pagination.FromTotal(sales, total, p), nil
}
