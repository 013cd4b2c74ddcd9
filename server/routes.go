package server

import (
	"net/http"
	"slices"
)

// Route is a named view and whether it needs a signed in user.
type Route struct {
	Name         string
	Path         string
	Pattern      string
	RequiresAuth bool
}

var routeTable = [...]Route{
	{Name: RouteNameHome, Path: "/", Pattern: RouteHome, RequiresAuth: true},
	{Name: RouteNameLogin, Path: RouteLogin, Pattern: RouteLogin, RequiresAuth: false},
	{Name: RouteNameAuthCallback, Path: RouteCallback, Pattern: RouteCallback, RequiresAuth: false},
	{Name: RouteNameAbout, Path: RouteAbout, Pattern: RouteAbout, RequiresAuth: true},
	{Name: RouteNameCustomers, Path: RouteCustomers, Pattern: RouteCustomers, RequiresAuth: true},
	{Name: RouteNameCustomersAdd, Path: RouteCustomersAdd, Pattern: RouteCustomersAdd, RequiresAuth: true},
	{Name: RouteNameCustomerDetail, Path: RouteCustomerDetail, Pattern: RouteCustomerDetail, RequiresAuth: true},
	{Name: RouteNameCustomerEdit, Path: RouteCustomerEdit, Pattern: RouteCustomerEdit, RequiresAuth: true},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	return slices.Clone(routeTable[:])
}

func LookupRoute(name string) (Route, bool) {
	i := slices.IndexFunc(routeTable[:], func(r Route) bool { return r.Name == name })
	if i < 0 {
		return Route{}, false
	}
	return routeTable[i], true
}

func mustRoute(name string) Route {
	r, ok := LookupRoute(name)
	if !ok {
		panic("unknown route " + name)
	}
	return r
}

func (s *Server) initRoutes() {
	home := mustRoute(RouteNameHome)
	login := mustRoute(RouteNameLogin)
	callback := mustRoute(RouteNameAuthCallback)
	about := mustRoute(RouteNameAbout)
	list := mustRoute(RouteNameCustomers)
	add := mustRoute(RouteNameCustomersAdd)
	detail := mustRoute(RouteNameCustomerDetail)
	edit := mustRoute(RouteNameCustomerEdit)

	// Views
	s.RegisterRouteHandler("GET "+home.Pattern, ChainMiddleware(s.HomeViewHandler(), s.ViewMiddleware(home)...))
	s.RegisterRouteHandler("GET "+login.Pattern, ChainMiddleware(s.LoginViewHandler(), s.ViewMiddleware(login)...))
	s.RegisterRouteHandler("GET "+callback.Pattern, ChainMiddleware(s.AuthCallbackHandler(), s.ViewMiddleware(callback)...))
	s.RegisterRouteHandler("GET "+about.Pattern, ChainMiddleware(s.AboutViewHandler(), s.ViewMiddleware(about)...))
	s.RegisterRouteHandler("GET "+list.Pattern, ChainMiddleware(s.CustomersViewHandler(), s.ViewMiddleware(list)...))
	s.RegisterRouteHandler("GET "+add.Pattern, ChainMiddleware(s.AddCustomerViewHandler(), s.ViewMiddleware(add)...))
	s.RegisterRouteHandler("GET "+detail.Pattern, ChainMiddleware(s.CustomerDetailViewHandler(), s.ViewMiddleware(detail)...))
	s.RegisterRouteHandler("GET "+edit.Pattern, ChainMiddleware(s.EditCustomerViewHandler(), s.ViewMiddleware(edit)...))

	// Auth actions
	s.RegisterRouteHandler("POST "+RouteAuthSignIn, ChainMiddleware(s.SignInHandler(), s.ViewMiddleware(login)...))
	s.RegisterRouteHandler("POST "+RouteAuthDev, ChainMiddleware(s.DevSignInHandler(), s.ViewMiddleware(login)...))
	s.RegisterRouteHandler("POST "+RouteAuthSignOut, ChainMiddleware(s.SignOutHandler(), s.ViewMiddleware(home)...))

	// Customer actions
	s.RegisterRouteHandler("POST "+RouteCustomers, ChainMiddleware(s.CreateCustomerHandler(), s.APIMiddleware(add)...))
	s.RegisterRouteHandler("POST "+RouteCustomersImport, ChainMiddleware(s.ImportCustomersHandler(), s.APIMiddleware(add, mimeJSON, mimeCSV)...))
	s.RegisterRouteHandler("PUT "+RouteCustomerDetail, ChainMiddleware(s.UpdateCustomerHandler(), s.APIMiddleware(edit)...))
	s.RegisterRouteHandler("DELETE "+RouteCustomerDetail, ChainMiddleware(s.DeleteCustomerHandler(), s.APIMiddleware(detail)...))

	s.RegisterRouteHandler("GET "+RouteCustomerNotes, ChainMiddleware(s.ListNotesHandler(), s.APIMiddleware(detail)...))
	s.RegisterRouteHandler("POST "+RouteCustomerNotes, ChainMiddleware(s.AddNoteHandler(), s.APIMiddleware(detail)...))
	s.RegisterRouteHandler("DELETE "+RouteCustomerNote, ChainMiddleware(s.DeleteNoteHandler(), s.APIMiddleware(detail)...))
	s.RegisterRouteHandler("GET "+RouteCustomerAppts, ChainMiddleware(s.ListAppointmentsHandler(), s.APIMiddleware(detail)...))
	s.RegisterRouteHandler("POST "+RouteCustomerAppts, ChainMiddleware(s.ScheduleAppointmentHandler(), s.APIMiddleware(detail)...))
	s.RegisterRouteHandler("PATCH "+RouteCustomerAppt, ChainMiddleware(s.AppointmentStatusHandler(), s.APIMiddleware(detail)...))

	// CORS preflight for the JSON actions
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {}, s.CorsMiddleware))

	// System
	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.HealthzHandler(), s.RecoverMiddleware))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}
