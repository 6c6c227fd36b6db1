package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
)

func TestRentalService_CreateRental_PricesByDailyRateAndReservesCar(t *testing.T) {
	db := newTestDB(t)
	rec := &memRecorder{}
	svc := NewRentalService(db, access.Policy{}, rec)

	owner := seedUser(t, db, access.RoleUser)
	renter := seedUser(t, db, access.RoleUser)
	car := seedCar(t, db, owner.UserID, nil)

	rental, err := svc.CreateRental(context.Background(), renter, CreateRentalInput{
		CarID:         car.ID,
		StartDate:     day("2024-01-01"),
		EndDate:       day("2024-01-04"),
		PaymentMethod: model.PaymentCreditCard,
	})
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	if !rental.TotalPrice.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("totalPrice = %s, want 150", rental.TotalPrice)
	}
	if rental.Status != model.RentalStatusPending || rental.PaymentStatus != model.RentalPaymentPending {
		t.Fatalf("status = %s/%s, want pending/pending", rental.Status, rental.PaymentStatus)
	}
	if rental.UserID != renter.UserID {
		t.Fatalf("rental user = %s, want %s", rental.UserID, renter.UserID)
	}
	if reloadCar(t, db, car.ID).Available {
		t.Fatalf("car still available after rental")
	}

	last := rec.last()
	if last.Action != "Rental created" || last.ResourceType != model.ResourceRental {
		t.Fatalf("activity = %q/%s", last.Action, last.ResourceType)
	}
	if last.ResourceID == nil || *last.ResourceID != rental.ID {
		t.Fatalf("activity resource id not set")
	}
}

func TestRentalService_CreateRental_PartialDayRoundsUp(t *testing.T) {
	db := newTestDB(t)
	svc := NewRentalService(db, access.Policy{}, nil)

	owner := seedUser(t, db, access.RoleUser)
	renter := seedUser(t, db, access.RoleUser)
	car := seedCar(t, db, owner.UserID, nil)

	start := day("2024-01-01")
	rental, err := svc.CreateRental(context.Background(), renter, CreateRentalInput{
		CarID:     car.ID,
		StartDate: start,
		EndDate:   start.Add(25 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}
	if !rental.TotalPrice.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("totalPrice = %s, want 100 (2 days)", rental.TotalPrice)
	}
}

func TestRentalService_CreateRental_SecondRentalFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewRentalService(db, access.Policy{}, nil)

	owner := seedUser(t, db, access.RoleUser)
	car := seedCar(t, db, owner.UserID, nil)

	in := CreateRentalInput{CarID: car.ID, StartDate: day("2024-02-01"), EndDate: day("2024-02-03")}
	if _, err := svc.CreateRental(context.Background(), seedUser(t, db, access.RoleUser), in); err != nil {
		t.Fatalf("first CreateRental: %v", err)
	}
	_, err := svc.CreateRental(context.Background(), seedUser(t, db, access.RoleUser), in)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second CreateRental err = %v, want ErrInvalidState", err)
	}
}

func TestRentalService_CreateRental_Rejections(t *testing.T) {
	db := newTestDB(t)
	svc := NewRentalService(db, access.Policy{}, nil)

	owner := seedUser(t, db, access.RoleUser)
	renter := seedUser(t, db, access.RoleUser)

	notForRent := seedCar(t, db, owner.UserID, func(c *model.Car) { c.ForRent = false })
	unavailable := seedCar(t, db, owner.UserID, func(c *model.Car) { c.Available = false })
	noRate := seedCar(t, db, owner.UserID, func(c *model.Car) { c.RentalPrice = model.RentalPrice{} })
	ok := seedCar(t, db, owner.UserID, nil)

	cases := []struct {
		name  string
		in    CreateRentalInput
		actor access.Actor
		want  error
	}{
		{"missing car", CreateRentalInput{CarID: uuid.New(), StartDate: day("2024-01-01"), EndDate: day("2024-01-02")}, renter, ErrNotFound},
		{"not for rent", CreateRentalInput{CarID: notForRent.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")}, renter, ErrInvalidState},
		{"unavailable", CreateRentalInput{CarID: unavailable.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")}, renter, ErrInvalidState},
		{"no daily rate", CreateRentalInput{CarID: noRate.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")}, renter, ErrInvalidState},
		{"end equals start", CreateRentalInput{CarID: ok.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-01")}, renter, ErrInvalidInput},
		{"end before start", CreateRentalInput{CarID: ok.ID, StartDate: day("2024-01-05"), EndDate: day("2024-01-01")}, renter, ErrInvalidInput},
		{"bad payment method", CreateRentalInput{CarID: ok.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02"), PaymentMethod: "barter"}, renter, ErrInvalidInput},
		{"anonymous", CreateRentalInput{CarID: ok.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")}, access.Actor{}, ErrUnauthenticated},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.CreateRental(context.Background(), c.actor, c.in)
			if !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}

	if !reloadCar(t, db, ok.ID).Available {
		t.Fatalf("rejected rentals must not touch the car")
	}
}

func TestRentalService_CreateRental_ConcurrentAtMostOne(t *testing.T) {
	db := newTestDB(t)
	svc := NewRentalService(db, access.Policy{}, nil)

	owner := seedUser(t, db, access.RoleUser)
	car := seedCar(t, db, owner.UserID, nil)

	const n = 8
	renters := make([]access.Actor, n)
	for i := range renters {
		renters[i] = seedUser(t, db, access.RoleUser)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		other     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(actor access.Actor) {
			defer wg.Done()
			_, err := svc.CreateRental(context.Background(), actor, CreateRentalInput{
				CarID:     car.ID,
				StartDate: day("2024-03-01"),
				EndDate:   day("2024-03-02"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, ErrInvalidState):
				other = append(other, err)
			}
		}(renters[i])
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}

	var count int64
	if err := db.Model(&model.Rental{}).Where("car_id = ?", car.ID).Count(&count).Error; err != nil {
		t.Fatalf("count rentals: %v", err)
	}
	if count != 1 {
		t.Fatalf("stored rentals = %d, want 1", count)
	}
}

func TestRentalService_CancelRental(t *testing.T) {
	db := newTestDB(t)
	rec := &memRecorder{}
	svc := NewRentalService(db, access.Policy{}, rec)

	owner := seedUser(t, db, access.RoleUser)
	renter := seedUser(t, db, access.RoleUser)
	stranger := seedUser(t, db, access.RoleUser)
	car := seedCar(t, db, owner.UserID, nil)
	ctx := context.Background()

	rental, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-03")})
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	if _, err := svc.CancelRental(ctx, stranger, rental.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger cancel err = %v, want ErrForbidden", err)
	}
	if reloadCar(t, db, car.ID).Available {
		t.Fatalf("forbidden cancel must not release the car")
	}

	got, err := svc.CancelRental(ctx, renter, rental.ID)
	if err != nil {
		t.Fatalf("CancelRental: %v", err)
	}
	if got.Status != model.RentalStatusCancelled || got.PaymentStatus != model.RentalPaymentRefunded {
		t.Fatalf("status = %s/%s, want cancelled/refunded", got.Status, got.PaymentStatus)
	}
	if got.CancelledAt == nil {
		t.Fatalf("cancelledAt not set")
	}
	if !reloadCar(t, db, car.ID).Available {
		t.Fatalf("car not released")
	}
	if rec.last().Action != "Rental cancelled" {
		t.Fatalf("last activity = %q", rec.last().Action)
	}

	if _, err := svc.CancelRental(ctx, renter, rental.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second cancel err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.CancelRental(ctx, renter, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing rental err = %v, want ErrNotFound", err)
	}
}

func TestRentalService_CancelRental_AdminAndDeletedCar(t *testing.T) {
	db := newTestDB(t)
	svc := NewRentalService(db, access.Policy{}, nil)

	owner := seedUser(t, db, access.RoleUser)
	renter := seedUser(t, db, access.RoleUser)
	admin := seedUser(t, db, access.RoleAdmin)
	car := seedCar(t, db, owner.UserID, nil)
	ctx := context.Background()

	rental, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")})
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}
	if err := db.Delete(&model.Car{}, "id = ?", car.ID).Error; err != nil {
		t.Fatalf("delete car: %v", err)
	}

	got, err := svc.CancelRental(ctx, admin, rental.ID)
	if err != nil {
		t.Fatalf("admin cancel with deleted car: %v", err)
	}
	if got.Status != model.RentalStatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	if got.Car != nil {
		t.Fatalf("deleted car should not be attached")
	}
}

func TestRentalService_DeleteRental(t *testing.T) {
	db := newTestDB(t)
	rec := &memRecorder{}
	svc := NewRentalService(db, access.Policy{}, rec)

	owner := seedUser(t, db, access.RoleUser)
	renter := seedUser(t, db, access.RoleUser)
	admin := seedUser(t, db, access.RoleAdmin)
	ctx := context.Background()

	t.Run("non admin forbidden", func(t *testing.T) {
		car := seedCar(t, db, owner.UserID, nil)
		rental, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")})
		if err != nil {
			t.Fatalf("CreateRental: %v", err)
		}
		if err := svc.DeleteRental(ctx, renter, rental.ID); !errors.Is(err, ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("active rental releases car", func(t *testing.T) {
		car := seedCar(t, db, owner.UserID, nil)
		rental, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")})
		if err != nil {
			t.Fatalf("CreateRental: %v", err)
		}
		if _, err := svc.ActivateRental(ctx, owner, rental.ID); err != nil {
			t.Fatalf("ActivateRental: %v", err)
		}

		if err := svc.DeleteRental(ctx, admin, rental.ID); err != nil {
			t.Fatalf("DeleteRental: %v", err)
		}
		if !reloadCar(t, db, car.ID).Available {
			t.Fatalf("car not released")
		}
		if rec.last().Action != "Rental deleted" {
			t.Fatalf("last activity = %q", rec.last().Action)
		}
		if err := svc.DeleteRental(ctx, admin, rental.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("second delete err = %v, want ErrNotFound", err)
		}
	})

	t.Run("pending rental releases car", func(t *testing.T) {
		car := seedCar(t, db, owner.UserID, nil)
		rental, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-04")})
		if err != nil {
			t.Fatalf("CreateRental: %v", err)
		}
		if rental.Status != model.RentalStatusPending {
			t.Fatalf("status = %s, want pending", rental.Status)
		}
		if reloadCar(t, db, car.ID).Available {
			t.Fatalf("pending rental should hold the car")
		}

		if err := svc.DeleteRental(ctx, admin, rental.ID); err != nil {
			t.Fatalf("DeleteRental: %v", err)
		}
		got := reloadCar(t, db, car.ID)
		if !got.Available || !got.ForRent {
			t.Fatalf("car after delete = available:%v forRent:%v", got.Available, got.ForRent)
		}
		// rentable again
		if _, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-02-01"), EndDate: day("2024-02-02")}); err != nil {
			t.Fatalf("CreateRental after delete: %v", err)
		}
	})

	t.Run("cancelled rental leaves car alone", func(t *testing.T) {
		car := seedCar(t, db, owner.UserID, nil)
		rental, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")})
		if err != nil {
			t.Fatalf("CreateRental: %v", err)
		}
		if _, err := svc.CancelRental(ctx, renter, rental.ID); err != nil {
			t.Fatalf("CancelRental: %v", err)
		}
		// someone else rents it meanwhile
		if _, err := svc.CreateRental(ctx, seedUser(t, db, access.RoleUser), CreateRentalInput{CarID: car.ID, StartDate: day("2024-02-01"), EndDate: day("2024-02-02")}); err != nil {
			t.Fatalf("second CreateRental: %v", err)
		}

		if err := svc.DeleteRental(ctx, admin, rental.ID); err != nil {
			t.Fatalf("DeleteRental: %v", err)
		}
		if reloadCar(t, db, car.ID).Available {
			t.Fatalf("deleting a cancelled rental must not release a car held by another rental")
		}
	})

	t.Run("deleted car", func(t *testing.T) {
		car := seedCar(t, db, owner.UserID, nil)
		rental, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")})
		if err != nil {
			t.Fatalf("CreateRental: %v", err)
		}
		if err := db.Delete(&model.Car{}, "id = ?", car.ID).Error; err != nil {
			t.Fatalf("delete car: %v", err)
		}
		if err := svc.DeleteRental(ctx, admin, rental.ID); err != nil {
			t.Fatalf("DeleteRental: %v", err)
		}
	})
}

func TestRentalService_ActivateAndComplete(t *testing.T) {
	db := newTestDB(t)
	svc := NewRentalService(db, access.Policy{}, nil)

	owner := seedUser(t, db, access.RoleUser)
	renter := seedUser(t, db, access.RoleUser)
	car := seedCar(t, db, owner.UserID, nil)
	ctx := context.Background()

	rental, err := svc.CreateRental(ctx, renter, CreateRentalInput{CarID: car.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")})
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	if _, err := svc.CompleteRental(ctx, owner, rental.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("complete pending err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.ActivateRental(ctx, renter, rental.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("renter activate err = %v, want ErrForbidden", err)
	}

	active, err := svc.ActivateRental(ctx, owner, rental.ID)
	if err != nil {
		t.Fatalf("ActivateRental: %v", err)
	}
	if active.Status != model.RentalStatusActive || active.PaymentStatus != model.RentalPaymentPaid {
		t.Fatalf("status = %s/%s, want active/paid", active.Status, active.PaymentStatus)
	}
	if reloadCar(t, db, car.ID).Available {
		t.Fatalf("active rental must hold the car")
	}

	done, err := svc.CompleteRental(ctx, owner, rental.ID)
	if err != nil {
		t.Fatalf("CompleteRental: %v", err)
	}
	if done.Status != model.RentalStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("status = %s completedAt=%v", done.Status, done.CompletedAt)
	}
	if !reloadCar(t, db, car.ID).Available {
		t.Fatalf("completed rental must release the car")
	}
	if _, err := svc.CancelRental(ctx, renter, rental.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel completed err = %v, want ErrInvalidState", err)
	}
}

func TestRentalService_ListAndGet(t *testing.T) {
	db := newTestDB(t)
	svc := NewRentalService(db, access.Policy{}, nil)

	owner := seedUser(t, db, access.RoleUser)
	renterA := seedUser(t, db, access.RoleUser)
	renterB := seedUser(t, db, access.RoleUser)
	manager := seedUser(t, db, access.RoleDealershipManager)
	ctx := context.Background()

	carA := seedCar(t, db, owner.UserID, nil)
	carB := seedCar(t, db, owner.UserID, nil)

	ra, err := svc.CreateRental(ctx, renterA, CreateRentalInput{CarID: carA.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")})
	if err != nil {
		t.Fatalf("CreateRental A: %v", err)
	}
	if _, err := svc.CreateRental(ctx, renterB, CreateRentalInput{CarID: carB.ID, StartDate: day("2024-01-01"), EndDate: day("2024-01-02")}); err != nil {
		t.Fatalf("CreateRental B: %v", err)
	}

	p := pagination.New(1, 10)

	mine, err := svc.ListRentals(ctx, renterA, RentalQuery{}, p)
	if err != nil {
		t.Fatalf("ListRentals renter: %v", err)
	}
	if mine.Total != 1 || mine.Items[0].ID != ra.ID {
		t.Fatalf("renter sees %d rentals", mine.Total)
	}
	if mine.Items[0].Car == nil || mine.Items[0].Car.ID != carA.ID {
		t.Fatalf("car not attached to listed rental")
	}

	ownerView, err := svc.ListRentals(ctx, owner, RentalQuery{}, p)
	if err != nil {
		t.Fatalf("ListRentals owner: %v", err)
	}
	if ownerView.Total != 2 {
		t.Fatalf("car owner sees %d rentals, want 2", ownerView.Total)
	}

	ownerBooked, err := svc.ListRentals(ctx, owner, RentalQuery{Mine: true}, p)
	if err != nil {
		t.Fatalf("ListRentals owner mine: %v", err)
	}
	if ownerBooked.Total != 0 {
		t.Fatalf("owner booked %d rentals, want 0", ownerBooked.Total)
	}

	all, err := svc.ListRentals(ctx, manager, RentalQuery{}, p)
	if err != nil {
		t.Fatalf("ListRentals manager: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("manager sees %d rentals, want 2", all.Total)
	}

	if _, err := svc.GetRental(ctx, renterB, ra.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other renter get err = %v, want ErrForbidden", err)
	}
	if _, err := svc.GetRental(ctx, owner, ra.ID); err != nil {
		t.Fatalf("car owner get: %v", err)
	}
	if _, err := svc.GetRental(ctx, manager, ra.ID); err != nil {
		t.Fatalf("manager get: %v", err)
	}
}
