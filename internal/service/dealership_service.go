package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
	"github.com/Leganyst/easycars/internal/repository"
)

type DealershipService struct {
	dealerships repository.DealershipRepository

	gate     access.Gate
	activity ActivityRecorder
}

func NewDealershipService(db *gorm.DB, gate access.Gate, activity ActivityRecorder) *DealershipService {
	return &DealershipService{
		dealerships: repository.NewGormDealershipRepository(db),
		gate:        gateOrDefault(gate),
		activity:    recorderOrNop(activity),
	}
}

type DealershipInput struct {
	Name        string
	Address     model.Address
	Phone       string
	Email       string
	Website     string
	Description string
	Images      []string
	Rating      float64
}

type DealershipPatch struct {
	Name        *string
	Address     *model.Address
	Phone       *string
	Email       *string
	Website     *string
	Description *string
	Images      *[]string
	Rating      *float64
}

func (s *DealershipService) List(ctx context.Context, city string, p pagination.Params) (pagination.Page[model.Dealership], error) {
	list, total, err := s.dealerships.List(ctx, city, p.Limit(), p.Offset())
	if err != nil {
		return pagination.Page[model.Dealership]{}, err
	}
	return pagination.FromTotal(list, total, p), nil
}

func (s *DealershipService) Get(ctx context.Context, id uuid.UUID) (*model.Dealership, error) {
	d, err := s.dealerships.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("dealership", err)
	}
	return d, nil
}

func (s *DealershipService) Create(ctx context.Context, actor access.Actor, in DealershipInput) (*model.Dealership, error) {
	if err := authorize(s.gate, actor, access.ManageDealerships, access.Resource{}); err != nil {
		return nil, err
	}
	if err := validateDealership(in.Name, in.Phone, in.Email, in.Rating); err != nil {
		return nil, err
	}

	d := &model.Dealership{
		Name:        strings.TrimSpace(in.Name),
		Address:     in.Address,
		Phone:       strings.TrimSpace(in.Phone),
		Email:       repository.NormalizeEmail(in.Email),
		Website:     in.Website,
		Description: in.Description,
		Images:      datatypes.JSONSlice[string](nonNil(in.Images)),
		Rating:      in.Rating,
	}
	if err := s.dealerships.Create(ctx, d); err != nil {
		return nil, writeErr("create dealership", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Dealership created", model.ResourceDealership, d.ID, map[string]any{
		"name": d.Name,
	}))
	return d, nil
}

func (s *DealershipService) Update(ctx context.Context, actor access.Actor, id uuid.UUID, p DealershipPatch) (*model.Dealership, error) {
	if err := authorize(s.gate, actor, access.ManageDealerships, access.Resource{}); err != nil {
		return nil, err
	}

	cur, err := s.dealerships.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("dealership", err)
	}

	fields := map[string]any{}
	name, phone, email, rating := cur.Name, cur.Phone, cur.Email, cur.Rating
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		fields["name"] = name
	}
	if p.Phone != nil {
		phone = strings.TrimSpace(*p.Phone)
		fields["phone"] = phone
	}
	if p.Email != nil {
		email = repository.NormalizeEmail(*p.Email)
		fields["email"] = email
	}
	if p.Rating != nil {
		rating = *p.Rating
		fields["rating"] = rating
	}
	if err := validateDealership(name, phone, email, rating); err != nil {
		return nil, err
	}
	if p.Website != nil {
		fields["website"] = *p.Website
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Images != nil {
		fields["images"] = datatypes.JSONSlice[string](nonNil(*p.Images))
	}
	if p.Address != nil {
		for k, v := range addressColumns("address_", *p.Address) {
			fields[k] = v
		}
	}

	d, err := s.dealerships.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, writeErr("update dealership", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Dealership updated", model.ResourceDealership, id, nil))
	return d, nil
}

func (s *DealershipService) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := authorize(s.gate, actor, access.ManageDealerships, access.Resource{}); err != nil {
		return err
	}
	if err := s.dealerships.Delete(ctx, id); err != nil {
		return writeErr("delete dealership", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Dealership deleted", model.ResourceDealership, id, nil))
	return nil
}

func validateDealership(name, phone, email string, rating float64) error {
	switch {
	case name == "":
		return fail(ErrInvalidInput, "name is required")
	case phone == "":
		return fail(ErrInvalidInput, "phone is required")
	case !strings.Contains(email, "@"):
		return fail(ErrInvalidInput, "a valid email is required")
	case rating < 0 || rating > 5:
		return fail(ErrInvalidInput, "rating must be between 0 and 5")
	}
	return nil
}
