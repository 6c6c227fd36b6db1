package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/auth"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
)

func newIdentity(t *testing.T) (*IdentityService, *memRecorder, *auth.Issuer) {
	t.Helper()
	db := newTestDB(t)
	rec := &memRecorder{}
	tokens := auth.NewIssuer("test-secret", time.Hour)
	return NewIdentityService(db, tokens, access.Policy{}, rec), rec, tokens
}

func TestIdentityService_RegisterLogin(t *testing.T) {
	svc, rec, tokens := newIdentity(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "  Ada@Example.COM ",
		Password:  "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.User.Email != "ada@example.com" {
		t.Fatalf("email = %q, want normalized", sess.User.Email)
	}
	if sess.User.Role != model.RoleCodeUser {
		t.Fatalf("role = %q, want user", sess.User.Role)
	}
	claims, err := tokens.Parse(sess.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id, _ := claims.UserID(); id != sess.User.ID {
		t.Fatalf("token subject = %s, want %s", id, sess.User.ID)
	}

	if _, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "ADA@example.com", Password: "secret1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate register err = %v, want ErrConflict", err)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password err = %v, want ErrInvalidCredentials", err)
	}
	if rec.last().Action != "LOGIN_FAILED" {
		t.Fatalf("last activity = %q, want LOGIN_FAILED", rec.last().Action)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}

	in, err := svc.Login(ctx, "ADA@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if in.User.LastLoginAt == nil {
		t.Fatalf("lastLoginAt not set")
	}
	if rec.last().Action != "LOGIN" {
		t.Fatalf("last activity = %q, want LOGIN", rec.last().Action)
	}
}

func TestIdentityService_RegisterValidation(t *testing.T) {
	svc, _, _ := newIdentity(t)

	cases := map[string]RegisterInput{
		"no first name":  {LastName: "B", Email: "a@b.c", Password: "secret1"},
		"bad email":      {FirstName: "A", LastName: "B", Email: "nope", Password: "secret1"},
		"short password": {FirstName: "A", LastName: "B", Email: "a@b.c", Password: "123"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestIdentityService_DisabledAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db, auth.NewIssuer("s", time.Hour), nil, nil)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "off@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := db.Model(&model.User{}).Where("id = ?", sess.User.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := svc.Login(ctx, "off@example.com", "secret1"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestIdentityService_UpdateProfile(t *testing.T) {
	svc, _, _ := newIdentity(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "p@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	actor := access.Actor{UserID: sess.User.ID, Role: access.RoleUser}

	phone := " +100 "
	newPass := "changed1"
	u, err := svc.UpdateProfile(ctx, actor, ProfilePatch{
		Phone:    &phone,
		Address:  &model.Address{City: "Austin"},
		Password: &newPass,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.Phone != "+100" || u.Address.City != "Austin" {
		t.Fatalf("profile = %+v", u)
	}
	if _, err := svc.Login(ctx, "p@example.com", "changed1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	empty := " "
	if _, err := svc.UpdateProfile(ctx, actor, ProfilePatch{FirstName: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty name err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Profile(ctx, access.Actor{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous profile err = %v, want ErrUnauthenticated", err)
	}
}

func TestIdentityService_Administration(t *testing.T) {
	svc, rec, _ := newIdentity(t)
	ctx := context.Background()

	admin, err := svc.BootstrapAdmin(ctx, "root@example.com", "rootpass")
	if err != nil {
		t.Fatalf("BootstrapAdmin: %v", err)
	}
	// second run promotes the same account
	again, err := svc.BootstrapAdmin(ctx, "root@example.com", "ignored")
	if err != nil || again.ID != admin.ID {
		t.Fatalf("second bootstrap = %v, %v", again, err)
	}
	adminActor := access.Actor{UserID: admin.ID, Role: access.RoleAdmin}

	sess, err := svc.Register(ctx, RegisterInput{FirstName: "U", LastName: "Ser", Email: "u@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	user := access.Actor{UserID: sess.User.ID, Role: access.RoleUser}

	if _, err := svc.ListUsers(ctx, user, pagination.New(1, 10)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user list err = %v, want ErrForbidden", err)
	}
	page, err := svc.ListUsers(ctx, adminActor, pagination.New(1, 10))
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("total = %d, want 2", page.Total)
	}

	if _, err := svc.SetRole(ctx, adminActor, user.UserID, "emperor"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role err = %v, want ErrInvalidInput", err)
	}
	promoted, err := svc.SetRole(ctx, adminActor, user.UserID, model.RoleCodeDealershipManager)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if promoted.Role != model.RoleCodeDealershipManager {
		t.Fatalf("role = %q", promoted.Role)
	}
	got, err := svc.GetUser(ctx, adminActor, user.UserID)
	if err != nil || got.Role != model.RoleCodeDealershipManager {
		t.Fatalf("GetUser = %v, %v", got, err)
	}

	if err := svc.DeleteUser(ctx, adminActor, admin.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("self delete err = %v, want ErrInvalidState", err)
	}
	if err := svc.DeleteUser(ctx, adminActor, user.UserID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if rec.last().Action != "User deleted" {
		t.Fatalf("last activity = %q", rec.last().Action)
	}
	if err := svc.DeleteUser(ctx, adminActor, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user err = %v, want ErrNotFound", err)
	}
}
