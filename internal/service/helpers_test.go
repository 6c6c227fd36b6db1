package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/repository"
)

// newTestDB opens a private in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, closeDB, err := openMemoryDB()
	if err != nil {
		t.Fatalf("%v", err)
	}
	t.Cleanup(closeDB)
	return db
}

// openMemoryDB is newTestDB for callers without a *testing.T. One
// connection: sqlite serializes writers anyway and the memory database
// lives as long as that connection.
func openMemoryDB() (*gorm.DB, func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("sql DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	closeDB := func() { sqlDB.Close() }

	if err := model.AutoMigrate(db); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := model.EnsureRoles(db); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("ensure roles: %w", err)
	}
	return db, closeDB, nil
}

type memRecorder struct {
	mu      sync.Mutex
	entries []model.ActivityLog
}

func (r *memRecorder) Record(_ context.Context, e model.ActivityLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *memRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func (r *memRecorder) last() model.ActivityLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return model.ActivityLog{}
	}
	return r.entries[len(r.entries)-1]
}

func seedUser(t *testing.T, db *gorm.DB, role access.Role) access.Actor {
	t.Helper()

	u := &model.User{
		FirstName:    "Test",
		LastName:     string(role),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := repository.NewGormUserRepository(db).SetRole(context.Background(), u.ID, string(role)); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return access.Actor{UserID: u.ID, Role: role}
}

// seedCar stores an available car listed for rent and sale at 20000 with a
// daily rate of 50. mutate adjusts it before insert.
func seedCar(t *testing.T, db *gorm.DB, owner uuid.UUID, mutate func(*model.Car)) *model.Car {
	t.Helper()

	c := &model.Car{
		OwnerID:   owner,
		Make:      "Toyota",
		Model:     "Corolla",
		Year:      2020,
		Color:     "white",
		Mileage:   42000,
		Price:     decimal.NewFromInt(20000),
		ForSale:   true,
		ForRent:   true,
		Available: true,
		RentalPrice: model.RentalPrice{
			Daily:  decimal.NewNullDecimal(decimal.NewFromInt(50)),
			Weekly: decimal.NewNullDecimal(decimal.NewFromInt(300)),
		},
	}
	if mutate != nil {
		mutate(c)
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed car: %v", err)
	}
	return c
}

func reloadCar(t *testing.T, db *gorm.DB, id uuid.UUID) *model.Car {
	t.Helper()
	var c model.Car
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		t.Fatalf("reload car: %v", err)
	}
	return &c
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
