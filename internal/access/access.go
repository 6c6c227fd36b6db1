// Package access is the authorization gate in front of every state change:
// it answers allow/deny for (actor, action, resource) triples.
package access

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAnonymous = errors.New("anonymous actor")
	ErrBadRole   = errors.New("unknown role")
)

// Role of the caller.
type Role string

const (
	RoleUser              Role = "user"
	RoleDealershipManager Role = "dealership_manager"
	RoleAdmin             Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleDealershipManager, RoleAdmin:
		return r, nil
	}
	return "", ErrBadRole
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsStaff covers roles that may read every rental and sale.
func (a Actor) IsStaff() bool { return a.Role == RoleAdmin || a.Role == RoleDealershipManager }

// Validate rejects zero actors and unknown roles.
func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return ErrAnonymous
	}
	if _, err := ParseRole(string(a.Role)); err != nil {
		return err
	}
	return nil
}

type Action string

const (
	ViewRental     Action = "rental:view"
	CancelRental   Action = "rental:cancel"
	ManageRental   Action = "rental:manage" // activate, complete
	DeleteRental   Action = "rental:delete"
	ListAllRentals Action = "rental:list_all"

	ViewSale     Action = "sale:view"
	DeleteSale   Action = "sale:delete"
	ListAllSales Action = "sale:list_all"

	UpdateCar Action = "car:update"
	DeleteCar Action = "car:delete"

	DeleteForumPost Action = "forum:delete"

	ManageUsers       Action = "user:manage"
	ManageDealerships Action = "dealership:manage"
	ViewActivityLogs  Action = "activity:view"
)

// Resource carries the ownership facts a decision needs. Owners lists every
// user id that counts as an owner for the action (renter, car owner, buyer...).
type Resource struct {
	Owners []uuid.UUID
}

// OwnedBy builds a Resource from owner ids, skipping uuid.Nil.
func OwnedBy(ids ...uuid.UUID) Resource {
	r := Resource{}
	for _, id := range ids {
		if id != uuid.Nil {
			r.Owners = append(r.Owners, id)
		}
	}
	return r
}

func (r Resource) ownedBy(id uuid.UUID) bool {
	for _, o := range r.Owners {
		if o == id {
			return true
		}
	}
	return false
}

type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Gate decides whether actor may perform action on resource.
type Gate interface {
	Authorize(actor Actor, action Action, resource Resource) Decision
}
