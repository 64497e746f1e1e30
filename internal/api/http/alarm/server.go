package alarm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
	"github.com/oshokin/alarm-blinker/internal/logger"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Command(ctx context.Context, actor *domain.Actor, value string) (*domain.Status, error)
	GetAlarmState(ctx context.Context) *domain.Status
}

// Options tunes the router.
type Options struct {
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// AllowCORS enables permissive CORS headers.
	AllowCORS bool
}

// Server serves the alarm HTTP API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
	// options tunes the router.
	options Options
}

// commandArgument is the query/form argument carrying the command.
const commandArgument = "alarm"

const contentTypeText = "text/plain; charset=utf-8"

// NewServer wires the provided service implementation into HTTP handlers.
func NewServer(service Service, options Options) *Server {
	return &Server{
		service: service,
		options: options,
	}
}

// Router returns the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if s.options.AllowCORS {
		r.Use(cors.AllowAll().Handler)
	}

	r.Get("/", s.handleRoot)
	r.HandleFunc("/alarm", s.handleAlarm)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.HandleFunc("/inline", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "this works as well")
	})

	if s.options.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.options.Metrics)
	}

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	return r
}

// handleRoot reports the alarm and blinker state.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	status := s.service.GetAlarmState(r.Context())

	var response strings.Builder

	response.WriteString("hello from alarm-blinker!\n\n")
	fmt.Fprintf(&response, "Alarm state: %s\n", status.State())
	fmt.Fprintf(&response, "Blinker state: %s\n", blinkerState(status.Output))
	fmt.Fprintf(&response, "Time passed since last alarm: %d\n", status.ElapsedSeconds)

	if status.LastActor != nil {
		fmt.Fprintf(&response, "Last changed by: %s\n", status.LastActor)
	}

	writeText(w, http.StatusOK, response.String())
}

// handleAlarm arms or disarms the alarm. Unknown values change nothing.
func (s *Server) handleAlarm(w http.ResponseWriter, r *http.Request) {
	var response strings.Builder

	response.WriteString("Alarm state change\n\n")

	value := r.FormValue(commandArgument)
	actor := &domain.Actor{Hostname: r.RemoteAddr}

	if _, err := s.service.Command(r.Context(), actor, value); err != nil {
		if !errors.Is(err, domain.ErrUnknownCommand) {
			logger.ErrorKV(r.Context(), "Alarm command failed", "error", err)
			writeText(w, http.StatusInternalServerError, "Alarm command failed\n")

			return
		}

		fmt.Fprintf(&response, "Unknown '%s' parameter value: %s\nNothing changed\n", commandArgument, value)
	}

	writeParams(&response, r)
	writeText(w, http.StatusOK, response.String())
}

// handleNotFound echoes the request for unknown routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	var response strings.Builder

	response.WriteString("File Not Found\n\n")
	writeParams(&response, r)
	writeText(w, http.StatusNotFound, response.String())
}

// writeParams appends the URI, method and arguments of r, arguments sorted by name.
func writeParams(response *strings.Builder, r *http.Request) {
	_ = r.ParseForm()

	names := make([]string, 0, len(r.Form))
	arguments := 0

	for name, values := range r.Form {
		names = append(names, name)
		arguments += len(values)
	}

	sort.Strings(names)

	fmt.Fprintf(response, "URI: %s\n", r.URL.Path)
	fmt.Fprintf(response, "Method: %s\n", r.Method)
	fmt.Fprintf(response, "Arguments: %d\n", arguments)

	for _, name := range names {
		for _, value := range r.Form[name] {
			fmt.Fprintf(response, " %s: %s\n", name, value)
		}
	}
}

// blinkerState renders the output the way the status page words it.
func blinkerState(output domain.Output) string {
	if output == domain.On {
		return "enabled"
	}

	return "disabled"
}

// writeText sends a plain-text response.
func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
