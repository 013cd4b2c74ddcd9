package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/sprinkler-crm/auth"
	"github.com/jrsteele09/sprinkler-crm/customers"
	"github.com/jrsteele09/sprinkler-crm/internal/config"
	"github.com/jrsteele09/sprinkler-crm/internal/metrics"
)

// Stores are the process wide stores the server reads and drives.
type Stores struct {
	Sessions     *auth.Store
	Customers    *customers.Store
	Notes        *customers.NotesStore
	Appointments *customers.AppointmentsStore
}

type Server struct {
	env         string // Environment (e.g., "DEV", "PROD")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	initTimeout time.Duration
	startedAt   time.Time
	version     string

	sessions     *auth.Store
	customers    *customers.Store
	notes        *customers.NotesStore
	appointments *customers.AppointmentsStore
	metrics      *metrics.Metrics
	crossOrigin  *http.CrossOriginProtection
}

func New(config config.Config, stores Stores, m *metrics.Metrics, version string) (*Server, error) {
	if stores.Sessions == nil || stores.Customers == nil || stores.Notes == nil || stores.Appointments == nil {
		return nil, errors.New("[Server New] all stores are required")
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		mux:          http.NewServeMux(),
		config:       config,
		initTimeout:  config.GetAuthInitTimeout(),
		startedAt:    time.Now(),
		version:      version,
		sessions:     stores.Sessions,
		customers:    stores.Customers,
		notes:        stores.Notes,
		appointments: stores.Appointments,
		metrics:      m,
		crossOrigin:  newCrossOriginProtection(config.GetAllowedOrigins()),
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// newCrossOriginProtection trusts every allowed origin. Entries that are not a
// bare origin, such as "*", are skipped.
func newCrossOriginProtection(origins config.AllowedOrigins) *http.CrossOriginProtection {
	cop := http.NewCrossOriginProtection()
	for origin := range origins {
		if err := cop.AddTrustedOrigin(origin); err != nil {
			log.Warn().Err(err).Str("origin", origin).Msg("Not trusting origin for writes")
		}
	}
	return cop
}

func (s *Server) logRoutes() {
	if s.env != config.DevEnv {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

// requestOrigin is the externally visible origin of the request.
func requestOrigin(r *http.Request) string {
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return getScheme(r) + "://" + host
}
