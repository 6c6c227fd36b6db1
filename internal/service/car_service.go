package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
	"github.com/Leganyst/easycars/internal/repository"
)

const featuredLimit = 3

type CarService struct {
	db          *gorm.DB
	cars        repository.CarRepository
	dealerships repository.DealershipRepository

	gate     access.Gate
	activity ActivityRecorder
	now      func() time.Time
}

func NewCarService(db *gorm.DB, gate access.Gate, activity ActivityRecorder) *CarService {
	return &CarService{
		db:          db,
		cars:        repository.NewGormCarRepository(db),
		dealerships: repository.NewGormDealershipRepository(db),
		gate:        gateOrDefault(gate),
		activity:    recorderOrNop(activity),
		now:         time.Now,
	}
}

type CarInput struct {
	Make        string
	Model       string
	Year        int
	Color       string
	Mileage     int
	Price       decimal.Decimal
	Description string
	Images      []string
	Features    []string
	ForSale     bool
	ForRent     bool
	RentalPrice model.RentalPrice
	Location    model.Address

	DealershipID *uuid.UUID
}

// CarPatch changes only the non-nil fields. A DealershipID of uuid.Nil
// unlinks the car.
type CarPatch struct {
	Make        *string
	Model       *string
	Year        *int
	Color       *string
	Mileage     *int
	Price       *decimal.Decimal
	Description *string
	Images      *[]string
	Features    *[]string
	ForSale     *bool
	ForRent     *bool
	RentalPrice *model.RentalPrice
	Location    *model.Address

	DealershipID *uuid.UUID
}

func (p CarPatch) touchesListing() bool {
	return p.ForSale != nil || p.ForRent != nil
}

func (s *CarService) ListCars(ctx context.Context, f repository.CarFilter, p pagination.Params) (pagination.Page[model.Car], error) {
	cars, total, err := s.cars.List(ctx, f, p.Limit(), p.Offset())
	if err != nil {
		return pagination.Page[model.Car]{}, err
	}
	return pagination.FromTotal(cars, total, p), nil
}

// Featured returns the newest cars currently on sale.
func (s *CarService) Featured(ctx context.Context) ([]model.Car, error) {
	yes := true
	cars, _, err := s.cars.List(ctx, repository.CarFilter{Available: &yes, ForSale: &yes}, featuredLimit, 0)
	if err != nil {
		return nil, err
	}
	if cars == nil {
		cars = []model.Car{}
	}
	return cars, nil
}

func (s *CarService) MyCars(ctx context.Context, actor access.Actor, p pagination.Params) (pagination.Page[model.Car], error) {
	if err := requireActor(actor); err != nil {
		return pagination.Page[model.Car]{}, err
	}
	return s.ListCars(ctx, repository.CarFilter{OwnerID: &actor.UserID}, p)
}

func (s *CarService) GetCar(ctx context.Context, id uuid.UUID) (*model.Car, error) {
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("car", err)
	}
	return car, nil
}

// CreateCar lists a new car owned by the actor; it starts available.
func (s *CarService) CreateCar(ctx context.Context, actor access.Actor, in CarInput) (*model.Car, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validateCar(in.Make, in.Model, in.Color, in.Year, in.Mileage, in.Price, in.RentalPrice); err != nil {
		return nil, err
	}
	if err := s.checkDealership(ctx, in.DealershipID); err != nil {
		return nil, err
	}

	car := &model.Car{
		OwnerID:      actor.UserID,
		DealershipID: in.DealershipID,
		Make:         strings.TrimSpace(in.Make),
		Model:        strings.TrimSpace(in.Model),
		Year:         in.Year,
		Color:        strings.TrimSpace(in.Color),
		Mileage:      in.Mileage,
		Price:        in.Price,
		Description:  in.Description,
		Images:       datatypes.JSONSlice[string](nonNil(in.Images)),
		Features:     datatypes.JSONSlice[string](nonNil(in.Features)),
		ForSale:      in.ForSale,
		ForRent:      in.ForRent,
		Available:    true,
		RentalPrice:  in.RentalPrice,
		Location:     in.Location,
	}
	if err := s.cars.Create(ctx, car); err != nil {
		return nil, writeErr("create car", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Car created", model.ResourceCar, car.ID, map[string]any{
		"make":  car.Make,
		"model": car.Model,
	}))
	return car, nil
}

func (s *CarService) UpdateCar(ctx context.Context, actor access.Actor, id uuid.UUID, p CarPatch) (*model.Car, error) {
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("car", err)
	}
	if err := authorize(s.gate, actor, access.UpdateCar, access.OwnedBy(car.OwnerID)); err != nil {
		return nil, err
	}
	if p.touchesListing() && !car.Available {
		return nil, fail(ErrInvalidState, "listing flags can only change while the car is available")
	}

	merged := *car
	applyCarPatch(&merged, p)
	if err := s.validateCar(merged.Make, merged.Model, merged.Color, merged.Year, merged.Mileage, merged.Price, merged.RentalPrice); err != nil {
		return nil, err
	}
	if p.DealershipID != nil && *p.DealershipID != uuid.Nil {
		if err := s.checkDealership(ctx, p.DealershipID); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cars := repository.NewGormCarRepository(tx)
		if err := cars.UpdateFields(ctx, id, carPatchColumns(p)); err != nil {
			return err
		}
		if !p.touchesListing() {
			return nil
		}
		_, err := cars.UpdateAvailability(ctx, id, repository.AvailabilityPatch{
			ForSale: p.ForSale,
			ForRent: p.ForRent,
		})
		return err
	})
	if err != nil {
		return nil, writeErr("update car", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Car updated", model.ResourceCar, id, nil))

	return s.GetCar(ctx, id)
}

func (s *CarService) DeleteCar(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return lookupErr("car", err)
	}
	if err := authorize(s.gate, actor, access.DeleteCar, access.OwnedBy(car.OwnerID)); err != nil {
		return err
	}
	if err := s.cars.Delete(ctx, id); err != nil {
		return writeErr("delete car", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Car deleted", model.ResourceCar, id, map[string]any{
		"make":  car.Make,
		"model": car.Model,
	}))
	return nil
}

func (s *CarService) validateCar(mk, mdl, color string, year, mileage int, price decimal.Decimal, rp model.RentalPrice) error {
	switch {
	case strings.TrimSpace(mk) == "":
		return fail(ErrInvalidInput, "make is required")
	case strings.TrimSpace(mdl) == "":
		return fail(ErrInvalidInput, "model is required")
	case strings.TrimSpace(color) == "":
		return fail(ErrInvalidInput, "color is required")
	case year < 1900 || year > s.now().Year()+1:
		return fail(ErrInvalidInput, "year %d is out of range", year)
	case mileage < 0:
		return fail(ErrInvalidInput, "mileage cannot be negative")
	case price.IsNegative():
		return fail(ErrInvalidInput, "price cannot be negative")
	}
	for _, rate := range []decimal.NullDecimal{rp.Daily, rp.Weekly, rp.Monthly} {
		if rate.Valid && rate.Decimal.IsNegative() {
			return fail(ErrInvalidInput, "rental price cannot be negative")
		}
	}
	return nil
}

func (s *CarService) checkDealership(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.dealerships.GetByID(ctx, *id); err != nil {
		return lookupErr("dealership", err)
	}
	return nil
}

func applyCarPatch(c *model.Car, p CarPatch) {
	if p.Make != nil {
		c.Make = *p.Make
	}
	if p.Model != nil {
		c.Model = *p.Model
	}
	if p.Year != nil {
		c.Year = *p.Year
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Mileage != nil {
		c.Mileage = *p.Mileage
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.RentalPrice != nil {
		c.RentalPrice = *p.RentalPrice
	}
}

// carPatchColumns skips the listing flags; they go through UpdateAvailability.
func carPatchColumns(p CarPatch) map[string]any {
	cols := map[string]any{}
	if p.Make != nil {
		cols["make"] = strings.TrimSpace(*p.Make)
	}
	if p.Model != nil {
		cols["model"] = strings.TrimSpace(*p.Model)
	}
	if p.Year != nil {
		cols["year"] = *p.Year
	}
	if p.Color != nil {
		cols["color"] = strings.TrimSpace(*p.Color)
	}
	if p.Mileage != nil {
		cols["mileage"] = *p.Mileage
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Images != nil {
		cols["images"] = datatypes.JSONSlice[string](nonNil(*p.Images))
	}
	if p.Features != nil {
		cols["features"] = datatypes.JSONSlice[string](nonNil(*p.Features))
	}
	if p.RentalPrice != nil {
		cols["rental_price_daily"] = p.RentalPrice.Daily
		cols["rental_price_weekly"] = p.RentalPrice.Weekly
		cols["rental_price_monthly"] = p.RentalPrice.Monthly
	}
	if p.Location != nil {
		for k, v := range addressColumns("location_", *p.Location) {
			cols[k] = v
		}
	}
	if p.DealershipID != nil {
		if *p.DealershipID == uuid.Nil {
			cols["dealership_id"] = nil
		} else {
			cols["dealership_id"] = *p.DealershipID
		}
	}
	return cols
}

func addressColumns(prefix string, a model.Address) map[string]any {
	return map[string]any{
		prefix + "street":   a.Street,
		prefix + "city":     a.City,
		prefix + "state":    a.State,
		prefix + "zip_code": a.ZipCode,
		prefix + "country":  a.Country,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
