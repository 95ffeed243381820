package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"portfolio-access/internal/usecase"
)

// Server exposes the access-pass flow over HTTP: the gated read, purchase
// initiation, activation polling, revocation, and the aggregator's payment
// callback.
type Server struct {
	accessUC       usecase.AccessUseCase
	activationUC   usecase.ActivationUseCase
	auth           *AuthManager
	callbackSecret string
	requestTimeout time.Duration
	dev            bool
	log            *zerolog.Logger

	server *http.Server
}

func NewServer(
	accessUC usecase.AccessUseCase,
	activationUC usecase.ActivationUseCase,
	auth *AuthManager,
	callbackSecret string,
	requestTimeout time.Duration,
	dev bool,
	logger *zerolog.Logger,
) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	l := logger.With().Str("component", "api").Logger()
	return &Server{
		accessUC:       accessUC,
		activationUC:   activationUC,
		auth:           auth,
		callbackSecret: callbackSecret,
		requestTimeout: requestTimeout,
		dev:            dev,
		log:            &l,
	}
}

// Router builds the chi router. Split out from Start for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(Timeout(s.requestTimeout))
		r.Post("/api/v1/payment/callback", s.handlePaymentCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Authenticate)
			r.Get("/api/v1/access/pass", s.handleGetPass)
			r.Post("/api/v1/access/purchase", s.handleStartPurchase)
			r.Post("/api/v1/access/revoke", s.handleRevoke)
			if s.dev {
				// Manual path bypassing the aggregator; local/simulated only.
				r.Post("/api/v1/access/grant", s.handleGrant)
			}
		})
	})

	// Long-poll endpoint runs up to the polling budget, outside the normal
	// request timeout.
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Authenticate)
		r.Post("/api/v1/access/poll", s.handlePoll)
	})

	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
