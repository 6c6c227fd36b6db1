package service

import (
	"github.com/Leganyst/easycars/internal/access"
)

var denyMessages = map[access.Action]string{
	access.ViewRental:        "not authorized to view this rental",
	access.CancelRental:      "not authorized to cancel this rental",
	access.ManageRental:      "not authorized to manage this rental",
	access.DeleteRental:      "only admins can delete rentals",
	access.ViewSale:          "not authorized to view this sale",
	access.DeleteSale:        "only admins can delete sales",
	access.UpdateCar:         "not authorized to update this car",
	access.DeleteCar:         "not authorized to delete this car",
	access.DeleteForumPost:   "not authorized to delete this post",
	access.ManageUsers:       "only admins can manage users",
	access.ManageDealerships: "only admins can manage dealerships",
	access.ViewActivityLogs:  "only admins can read activity logs",
}

// authorize turns a Deny into ErrForbidden. An anonymous actor yields
// ErrUnauthenticated instead.
func authorize(g access.Gate, actor access.Actor, action access.Action, res access.Resource) error {
	if err := actor.Validate(); err != nil {
		return fail(ErrUnauthenticated, "authentication required")
	}
	if g.Authorize(actor, action, res) == access.Allow {
		return nil
	}
	msg, ok := denyMessages[action]
	if !ok {
		msg = "forbidden"
	}
	return fail(ErrForbidden, "%s", msg)
}

func requireActor(actor access.Actor) error {
	if err := actor.Validate(); err != nil {
		return fail(ErrUnauthenticated, "authentication required")
	}
	return nil
}

func gateOrDefault(g access.Gate) access.Gate {
	if g == nil {
		return access.Policy{}
	}
	return g
}
