package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Engagements   *EngagementHandler
	Slots         *SlotHandler
	Participation *ParticipationHandler
	Conflicts     *ConflictHandler
	Events        http.Handler
	Middleware    []func(http.Handler) http.Handler
}

const apiPrefix = "/api"

// NewRouter mounts every configured handler under /api. Unset handlers leave
// their routes unregistered. Routes sit on the root router so a known path
// requested with the wrong method answers 405.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mux.MiddlewareFunc(mw))
		}
	}
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api := apiRoutes{router: r}
	api.HandleFunc("/health", health).Methods(http.MethodGet)

	if cfg.Events != nil {
		api.Handle("/ws", cfg.Events).Methods(http.MethodGet)
	}

	if h := cfg.Engagements; h != nil {
		api.HandleFunc("/engagements", h.List).Methods(http.MethodGet)
		api.HandleFunc("/engagements", h.Create).Methods(http.MethodPost)
		api.HandleFunc("/engagements/{id}", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/engagements/{id}", h.Update).Methods(http.MethodPut)
		api.HandleFunc("/engagements/{id}", h.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/calendar", h.Day).Methods(http.MethodGet)
		api.HandleFunc("/calendar.ics", h.Feed).Methods(http.MethodGet)
	}

	if h := cfg.Slots; h != nil {
		api.HandleFunc("/engagements/{id}/slots", h.List).Methods(http.MethodGet)
		api.HandleFunc("/engagements/{id}/bookings", h.Book).Methods(http.MethodPost)
		api.HandleFunc("/engagements/{id}/bookings/{bookingID}", h.Cancel).Methods(http.MethodDelete)
		api.HandleFunc("/engagements/{id}/waitlist/process", h.ProcessWaitlist).Methods(http.MethodPost)
		api.HandleFunc("/engagements/{id}/slot-exceptions", h.CreateException).Methods(http.MethodPost)
		api.HandleFunc("/engagements/{id}/slot-exceptions/{exceptionID}", h.UpdateException).Methods(http.MethodPut)
		api.HandleFunc("/engagements/{id}/slot-exceptions/{exceptionID}", h.DeleteException).Methods(http.MethodDelete)
	}

	if h := cfg.Participation; h != nil {
		api.HandleFunc("/engagements/{id}/rsvp/{userID}", h.UpdateRSVP).Methods(http.MethodPut)
		api.HandleFunc("/engagements/{id}/volunteer-requests", h.SubmitVolunteerRequest).Methods(http.MethodPost)
		api.HandleFunc("/engagements/{id}/volunteer-requests/{requestID}", h.ReviewVolunteerRequest).Methods(http.MethodPut)
	}

	if h := cfg.Conflicts; h != nil {
		api.HandleFunc("/recurrence/expand", h.Expand).Methods(http.MethodPost)
		api.HandleFunc("/conflicts/schedule", h.CheckSchedule).Methods(http.MethodPost)
		api.HandleFunc("/conflicts/recurrence", h.CheckRecurrence).Methods(http.MethodPost)
	}

	return r
}

type apiRoutes struct {
	router *mux.Router
}

func (a apiRoutes) HandleFunc(path string, fn func(http.ResponseWriter, *http.Request)) *mux.Route {
	return a.router.HandleFunc(apiPrefix+path, fn)
}

func (a apiRoutes) Handle(path string, handler http.Handler) *mux.Route {
	return a.router.Handle(apiPrefix+path, handler)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	newResponder(LoggerFromContext(r.Context())).writeError(r.Context(), w, http.StatusMethodNotAllowed, nil)
}

func health(w http.ResponseWriter, r *http.Request) {
	newResponder(LoggerFromContext(r.Context())).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
