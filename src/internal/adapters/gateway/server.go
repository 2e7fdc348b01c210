// Package gateway exposes the bot router to the chat transport bridge over
// HTTP, and ships the Go client the console uses to talk to it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
)

const (
	maxBodyBytes    = 64 << 10
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// Router turns one inbound interaction into the replies to deliver.
type Router interface {
	Handle(ctx context.Context, in domain.Interaction) []domain.Reply
}

// InteractionResponse is the body of a successful POST /v1/interactions.
type InteractionResponse struct {
	RequestID string         `json:"requestId"`
	Replies   []domain.Reply `json:"replies"`
}

type errorResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error"`
}

type Options struct {
	Addr string
	// RateLimit is the number of interactions per user per minute; zero
	// disables limiting.
	RateLimit    int
	WriteTimeout time.Duration
	// Verifier is optional. Without one the endpoint is open, which is only
	// meant for local runs behind a private network.
	Verifier Verifier
}

type Server struct {
	router   Router
	opts     Options
	limiter  *httprate.RateLimiter
	validate *validator.Validate
	log      zerolog.Logger
}

func NewServer(router Router, opts Options) *Server {
	s := &Server{
		router:   router,
		opts:     opts,
		validate: validator.New(),
		log:      logging.WithComponent("gateway"),
	}
	if opts.RateLimit > 0 {
		s.limiter = httprate.NewRateLimiter(opts.RateLimit, time.Minute)
	}
	return s
}

// Routes builds the chi mux. The interaction route is authenticated when a
// verifier is configured; health and metrics never are.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requestID)
		if s.opts.Verifier != nil {
			r.Use(RequireBearer(s.opts.Verifier))
		}
		r.Post("/interactions", s.handleInteraction)
	})
	return r
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFrom(r.Context())

	var in domain.Interaction
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		s.writeError(w, reqID, http.StatusBadRequest, "malformed interaction")
		return
	}
	if err := s.validate.Struct(in); err != nil {
		s.writeError(w, reqID, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// The limit is keyed on the decoded user, so it runs here rather than as
	// route middleware.
	if s.limiter != nil && s.limiter.RespondOnLimit(w, r, strconv.FormatInt(in.UserID, 10)) {
		s.log.Warn().Int64("user_id", in.UserID).Str("request_id", reqID).Msg("interaction rate limited")
		return
	}

	start := time.Now()
	replies := s.router.Handle(r.Context(), in)
	if replies == nil {
		replies = []domain.Reply{}
	}
	s.log.Debug().
		Str("request_id", reqID).
		Int64("user_id", in.UserID).
		Str("kind", string(in.Kind)).
		Int("replies", len(replies)).
		Dur("took", time.Since(start)).
		Msg("interaction handled")

	writeJSON(w, http.StatusOK, InteractionResponse{RequestID: reqID, Replies: replies})
}

func (s *Server) writeError(w http.ResponseWriter, reqID string, status int, msg string) {
	writeJSON(w, status, errorResponse{RequestID: reqID, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the HTTP server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("gateway server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *Server) String() string { return "gateway" }

type ctxKey int

const requestIDKey ctxKey = iota

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
