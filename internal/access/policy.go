package access

// Policy is the marketplace rule set:
//   - admins may do everything;
//   - admin-only actions: deleting rentals and sales, user and dealership
//     management, reading activity logs;
//   - staff (admin, dealership manager) may read every rental and sale;
//   - everything else requires the actor to own the resource.
type Policy struct{}

var _ Gate = Policy{}

var adminOnly = map[Action]bool{
	DeleteRental:      true,
	DeleteSale:        true,
	ManageUsers:       true,
	ManageDealerships: true,
	ViewActivityLogs:  true,
}

var staffReadable = map[Action]bool{
	ViewRental:     true,
	ListAllRentals: true,
	ViewSale:       true,
	ListAllSales:   true,
}

func (Policy) Authorize(actor Actor, action Action, resource Resource) Decision {
	if actor.Validate() != nil {
		return Deny
	}
	if actor.IsAdmin() {
		return Allow
	}
	if adminOnly[action] {
		return Deny
	}
	if staffReadable[action] && actor.IsStaff() {
		return Allow
	}
	if action == ListAllRentals || action == ListAllSales {
		return Deny
	}
	if resource.ownedBy(actor.UserID) {
		return Allow
	}
	return Deny
}
