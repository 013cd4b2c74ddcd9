package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/sprinkler-crm/auth"
)

type homeView struct {
	Route          string    `json:"route"`
	App            string    `json:"app"`
	User           *userView `json:"user"`
	TotalCustomers int       `json:"totalCustomers"`
	DevSession     bool      `json:"devSession"`
}

func (s *Server) HomeViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.sessions.Snapshot()
		writeJSON(w, http.StatusOK, homeView{
			Route:          RouteNameHome,
			App:            s.config.GetAppName(),
			User:           newUserView(st),
			TotalCustomers: s.customers.TotalCustomers(),
			DevSession:     st.User != nil && st.User.ID == auth.DevUserID,
		})
	}
}

type aboutView struct {
	Route   string `json:"route"`
	App     string `json:"app"`
	Version string `json:"version"`
	Env     string `json:"env"`
}

func (s *Server) AboutViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, aboutView{
			Route:   RouteNameAbout,
			App:     s.config.GetAppName(),
			Version: s.version,
			Env:     s.env,
		})
	}
}

type healthView struct {
	Status        string `json:"status"`
	Initialized   bool   `json:"initialized"`
	Authenticated bool   `json:"authenticated"`
	Uptime        string `json:"uptime"`
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthView{
			Status:        "ok",
			Initialized:   s.sessions.Initialized(),
			Authenticated: s.sessions.IsAuthenticated(),
			Uptime:        time.Since(s.startedAt).Truncate(time.Second).String(),
		})
	}
}
