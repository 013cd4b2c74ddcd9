package server

// Route names. Views are addressed by name; paths live below.
const (
	RouteNameHome           = "home"
	RouteNameLogin          = "login"
	RouteNameAuthCallback   = "auth-callback"
	RouteNameAbout          = "about"
	RouteNameCustomers      = "customers"
	RouteNameCustomersAdd   = "customers-add"
	RouteNameCustomerDetail = "customer-detail"
	RouteNameCustomerEdit   = "customer-edit"
)

// Route path constants
const (
	// Views
	RouteHome           = "/{$}"
	RouteLogin          = "/login"
	RouteCallback       = "/auth/callback"
	RouteAbout          = "/about"
	RouteCustomers      = "/customers"
	RouteCustomersAdd   = "/customers/add"
	RouteCustomerDetail = "/customers/{id}"
	RouteCustomerEdit   = "/customers/{id}/edit"

	// Auth actions
	RouteAuthSignIn  = "/auth/signin/{provider}"
	RouteAuthSignOut = "/auth/signout"
	RouteAuthDev     = "/auth/dev"

	// Customer actions
	RouteCustomersImport = "/customers/import"
	RouteCustomerNotes   = "/customers/{id}/notes"
	RouteCustomerNote    = "/customers/{id}/notes/{noteID}"
	RouteCustomerAppts   = "/customers/{id}/appointments"
	RouteCustomerAppt    = "/customers/{id}/appointments/{apptID}"

	// System
	RouteMetrics = "/metrics"
	RouteHealthz = "/healthz"
)
