package ui

import (
	"welfaredesk/internal/model"
	"welfaredesk/internal/nav"
)

const overviewRoute = "/"

var (
	dialysisRoles  = []model.Role{model.RoleDialysisManager}
	donationRoles  = []model.Role{model.RoleAccountant, model.RoleOfficeStaff}
	accountRoles   = []model.Role{model.RoleAccountant}
	inventoryRoles = []model.Role{model.RoleOfficeStaff}
)

// menu is the full sidebar; nav.Filter trims it per role.
func menu() []nav.Node {
	return []nav.Node{
		{Key: "overview", Label: "Overview", Route: overviewRoute},
		{
			Key: "dialysis", Label: "Dialysis",
			Children: []nav.Node{
				{Key: "wards", Label: "Wards", Route: "/dialysis/wards", Roles: dialysisRoles},
				{Key: "beds", Label: "Beds", Route: "/dialysis/beds", Roles: dialysisRoles},
				{Key: "machines", Label: "Machines", Route: "/dialysis/machines", Roles: dialysisRoles},
				{
					Key: "maintenance", Label: "Maintenance",
					Children: []nav.Node{
						{Key: "warnings", Label: "Warnings", Route: "/dialysis/warnings", Roles: dialysisRoles},
						{Key: "warning-fixes", Label: "Fixes", Route: "/dialysis/warning-fixes", Roles: dialysisRoles},
					},
				},
				{Key: "sessions", Label: "Sessions", Route: "/dialysis/sessions", Roles: dialysisRoles},
				{
					Key: "appointments", Label: "Appointments", Route: "/dialysis/appointments",
					Roles: []model.Role{model.RoleDialysisManager, model.RoleOfficeStaff},
				},
			},
		},
		{
			Key: "donations", Label: "Donations",
			Children: []nav.Node{
				{Key: "donors", Label: "Donors", Route: "/donations/donors", Roles: donationRoles},
				{Key: "donation-list", Label: "Donations", Route: "/donations/donations", Roles: accountRoles},
			},
		},
		{
			Key: "accounts", Label: "Accounts", Roles: accountRoles,
			Children: []nav.Node{
				{Key: "vendors", Label: "Vendors", Route: "/accounts/vendors"},
				{Key: "expenses", Label: "Expenses", Route: "/accounts/expenses"},
			},
		},
		{
			Key: "inventory", Label: "Inventory", Roles: inventoryRoles,
			Children: []nav.Node{
				{Key: "items", Label: "Items", Route: "/inventory/items"},
			},
		},
	}
}

// newScreen constructs the screen for route. Callers check the route guard
// first.
func newScreen(route string, d Deps) (Screen, bool) {
	switch route {
	case overviewRoute:
		return newOverview(d), true
	case "/dialysis/wards":
		return NewCrudScreen(wardsDescriptor(), d), true
	case "/dialysis/beds":
		return NewCrudScreen(bedsDescriptor(), d), true
	case "/dialysis/machines":
		return NewCrudScreen(machinesDescriptor(), d), true
	case "/dialysis/warnings":
		return NewCrudScreen(warningsDescriptor(), d), true
	case "/dialysis/warning-fixes":
		return NewCrudScreen(warningFixesDescriptor(), d), true
	case "/dialysis/sessions":
		return NewCrudScreen(dialysisSessionsDescriptor(), d), true
	case "/dialysis/appointments":
		return NewCrudScreen(appointmentsDescriptor(), d), true
	case "/donations/donors":
		return NewCrudScreen(donorsDescriptor(), d), true
	case "/donations/donations":
		return NewCrudScreen(donationsDescriptor(), d), true
	case "/accounts/vendors":
		return NewCrudScreen(vendorsDescriptor(), d), true
	case "/accounts/expenses":
		return NewCrudScreen(expensesDescriptor(), d), true
	case "/inventory/items":
		return NewCrudScreen(itemsDescriptor(), d), true
	}
	return nil, false
}
