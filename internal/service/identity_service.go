package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/auth"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
	"github.com/Leganyst/easycars/internal/repository"
)

// IdentityService handles registration, login and user administration.
type IdentityService struct {
	users  repository.UserRepository
	tokens *auth.Issuer

	gate     access.Gate
	activity ActivityRecorder
	now      func() time.Time
}

func NewIdentityService(db *gorm.DB, tokens *auth.Issuer, gate access.Gate, activity ActivityRecorder) *IdentityService {
	return &IdentityService{
		users:    repository.NewGormUserRepository(db),
		tokens:   tokens,
		gate:     gateOrDefault(gate),
		activity: recorderOrNop(activity),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

// Session is what a successful register/login hands back.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type ProfilePatch struct {
	FirstName      *string
	LastName       *string
	Phone          *string
	ProfilePicture *string
	Address        *model.Address
	Password       *string
}

func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := repository.NormalizeEmail(in.Email)
	switch {
	case strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "":
		return nil, fail(ErrInvalidInput, "first and last name are required")
	case !strings.Contains(email, "@"):
		return nil, fail(ErrInvalidInput, "a valid email is required")
	}

	hash, err := auth.HashPassword(in.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return nil, fail(ErrInvalidInput, "%s", err.Error())
	}
	if err != nil {
		return nil, err
	}

	u := &model.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fail(ErrConflict, "user already exists")
		}
		return nil, writeErr("register user", err)
	}
	if err := s.users.SetRole(ctx, u.ID, model.RoleCodeUser); err != nil {
		return nil, writeErr("assign role", err)
	}
	u.Role = model.RoleCodeUser

	s.activity.Record(ctx, entry(u.ID, "REGISTER", model.ResourceUser, u.ID, nil))

	return s.session(u)
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrInvalidCredentials, "invalid credentials")
	}
	if err != nil {
		return nil, lookupErr("user", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		s.activity.Record(ctx, entry(u.ID, "LOGIN_FAILED", model.ResourceUser, u.ID, nil))
		return nil, fail(ErrInvalidCredentials, "invalid credentials")
	}
	if !u.IsActive {
		return nil, fail(ErrUnauthenticated, "account is disabled")
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, writeErr("record login", err)
	}
	u.LastLoginAt = &now

	if err := s.withRole(ctx, u); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, entry(u.ID, "LOGIN", model.ResourceUser, u.ID, nil))

	return s.session(u)
}

func (s *IdentityService) Profile(ctx context.Context, actor access.Actor) (*model.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, actor.UserID)
}

func (s *IdentityService) UpdateProfile(ctx context.Context, actor access.Actor, p ProfilePatch) (*model.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if p.FirstName != nil {
		if strings.TrimSpace(*p.FirstName) == "" {
			return nil, fail(ErrInvalidInput, "first name cannot be empty")
		}
		fields["first_name"] = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		if strings.TrimSpace(*p.LastName) == "" {
			return nil, fail(ErrInvalidInput, "last name cannot be empty")
		}
		fields["last_name"] = strings.TrimSpace(*p.LastName)
	}
	if p.Phone != nil {
		fields["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.ProfilePicture != nil {
		fields["profile_picture"] = *p.ProfilePicture
	}
	if p.Address != nil {
		for k, v := range addressColumns("address_", *p.Address) {
			fields[k] = v
		}
	}
	if p.Password != nil {
		hash, err := auth.HashPassword(*p.Password)
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, fail(ErrInvalidInput, "%s", err.Error())
		}
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	u, err := s.users.UpdateFields(ctx, actor.UserID, fields)
	if err != nil {
		return nil, writeErr("update profile", err)
	}
	if err := s.withRole(ctx, u); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, entry(actor.UserID, "User profile updated", model.ResourceUser, actor.UserID, nil))
	return u, nil
}

func (s *IdentityService) ListUsers(ctx context.Context, actor access.Actor, p pagination.Params) (pagination.Page[model.User], error) {
	if err := authorize(s.gate, actor, access.ManageUsers, access.Resource{}); err != nil {
		return pagination.Page[model.User]{}, err
	}

	users, total, err := s.users.List(ctx, p.Limit(), p.Offset())
	if err != nil {
		return pagination.Page[model.User]{}, err
	}
	for i := range users {
		if err := s.withRole(ctx, &users[i]); err != nil {
			return pagination.Page[model.User]{}, err
		}
	}
	return pagination.FromTotal(users, total, p), nil
}

func (s *IdentityService) GetUser(ctx context.Context, actor access.Actor, id uuid.UUID) (*model.User, error) {
	if err := authorize(s.gate, actor, access.ManageUsers, access.Resource{}); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, id)
}

func (s *IdentityService) DeleteUser(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := authorize(s.gate, actor, access.ManageUsers, access.Resource{}); err != nil {
		return err
	}
	if id == actor.UserID {
		return fail(ErrInvalidState, "cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrNotFound, "user not found")
		}
		return writeErr("delete user", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "User deleted", model.ResourceUser, id, nil))
	return nil
}

// SetRole replaces the user's role (one role per user).
func (s *IdentityService) SetRole(ctx context.Context, actor access.Actor, id uuid.UUID, role string) (*model.User, error) {
	if err := authorize(s.gate, actor, access.ManageUsers, access.Resource{}); err != nil {
		return nil, err
	}
	if !model.KnownRole(role) {
		return nil, fail(ErrInvalidInput, "unknown role %q", role)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	if err := s.users.SetRole(ctx, id, role); err != nil {
		return nil, writeErr("set role", err)
	}
	u.Role = role

	s.activity.Record(ctx, entry(actor.UserID, "User role changed", model.ResourceUser, id, map[string]any{
		"role": role,
	}))
	return u, nil
}

// BootstrapAdmin makes sure an admin account exists for email. An existing
// account keeps its password and is promoted.
func (s *IdentityService) BootstrapAdmin(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, fail(ErrInvalidInput, "admin password: %v", err)
		}
		u = &model.User{
			FirstName:    "Admin",
			LastName:     "User",
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, writeErr("create admin", err)
		}
	case err != nil:
		return nil, lookupErr("user", err)
	}

	if err := s.users.SetRole(ctx, u.ID, model.RoleCodeAdmin); err != nil {
		return nil, writeErr("assign admin role", err)
	}
	u.Role = model.RoleCodeAdmin

	s.activity.Record(ctx, entry(u.ID, "Admin bootstrapped", model.ResourceSystem, u.ID, nil))
	return u, nil
}

func (s *IdentityService) loadUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	if err := s.withRole(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// withRole fills u.Role; users without a role row count as plain users.
func (s *IdentityService) withRole(ctx context.Context, u *model.User) error {
	role, err := s.users.GetRole(ctx, u.ID)
	switch {
	case err == nil:
		u.Role = role
	case errors.Is(err, gorm.ErrRecordNotFound):
		u.Role = model.RoleCodeUser
	default:
		return lookupErr("role", err)
	}
	return nil
}

func (s *IdentityService) session(u *model.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}
