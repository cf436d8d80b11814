// Package httpserver exposes the village-mart REST API.
package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/and161185/village-mart/internal/errs"
	"github.com/and161185/village-mart/internal/model"
	"github.com/and161185/village-mart/internal/service"
)

// LiveText is the body of GET /.
const LiveText = "Server is live and running! "

// Services groups everything the handlers call.
type Services struct {
	Auth     service.AuthService
	Profiles service.ProfileService
	Bookings service.BookingService
	Catalog  service.CatalogService
	Contacts service.ContactService
}

// Options tunes the middleware chain. Zero values pick safe defaults.
type Options struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// Health reports readiness of backing stores for GET /health.
	Health func(r *http.Request) error
}

// Server wires services into HTTP handlers.
type Server struct {
	svc     Services
	signKey []byte
	log     *zap.Logger
	opts    Options
}

// New constructs the server with injected services.
func New(svc Services, signKey []byte, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{svc: svc, signKey: signKey, log: log, opts: opts}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logging(s.log))
	r.Use(Recover(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	if s.opts.RateLimitRPS > 0 {
		burst := s.opts.RateLimitBurst
		if burst <= 0 {
			burst = int(s.opts.RateLimitRPS) + 1
		}
		r.Use(NewIPRateLimiter(s.opts.RateLimitRPS, burst).Middleware(s.log))
	}

	r.Get("/", s.live)
	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.listProducts)
		r.Get("/services", s.listServices)
		r.Get("/news", s.listNews)
		r.Post("/contact", s.submitContact)
		r.Post("/register", s.register)
		r.Post("/login", s.login)

		r.Route("/user/{id}", func(r chi.Router) {
			r.Use(RequireAuth(s.signKey, s.log))
			r.Use(RequireOwner(s.log))

			r.Get("/", s.getUser)
			r.Put("/", s.updateUser)
			r.Get("/bookings", s.listBookings)
			r.Post("/bookings", s.createBooking)
		})
	})

	return otelhttp.NewHandler(r, "village-mart")
}

// --- Public ---

func (s *Server) live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(LiveText))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		if err := s.opts.Health(r); err != nil {
			s.log.Warn("health check", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.svc.Catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) listServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, service.Services())
}

func (s *Server) listNews(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, service.News())
}

type contactRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	msg, err := s.svc.Contacts.Submit(r.Context(), req.Name, req.Message)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type registerRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Phone    *string `json:"phone"`
}

type registerResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	u, err := s.svc.Auth.Register(r.Context(), req.Username, req.Password, req.Phone)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Message: "User registered successfully", User: u})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	id, err := s.svc.Auth.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// --- Protected: the owner id always comes from verified claims ---

func (s *Server) owner(r *http.Request) int64 {
	id, _ := UserIDFromCtx(r.Context())
	return id
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Profiles.Get(r.Context(), s.owner(r))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateUserRequest struct {
	Phone *string `json:"phone"`
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	u, err := s.svc.Profiles.UpdatePhone(r.Context(), s.owner(r), req.Phone)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.Bookings.List(r.Context(), s.owner(r))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

type bookingRequest struct {
	Products json.RawMessage `json:"products"`
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	products, err := parseProducts(req.Products)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	b, err := s.svc.Bookings.Create(r.Context(), s.owner(r), products)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// parseProducts accepts only a JSON array of strings.
func parseProducts(raw json.RawMessage) ([]string, error) {
	var products []string
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: products must be a non-empty array", errs.ErrValidation)
	}
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("%w: products must be an array of strings", errs.ErrValidation)
	}
	return products, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id", errs.ErrValidation)
	}
	return id, nil
}
