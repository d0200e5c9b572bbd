package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	invoicehttp "3tcapital/facturas_sri/internal/adapters/http/invoice"
	taxpayerhttp "3tcapital/facturas_sri/internal/adapters/http/taxpayer"
	"3tcapital/facturas_sri/internal/infrastructure/config"
	"3tcapital/facturas_sri/internal/infrastructure/http/middleware"
)

// Server owns the HTTP listener and the route table.
type Server struct {
	cfg        config.HTTPSettings
	log        *slog.Logger
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
}

// Options groups the dependencies of the HTTP server. Nil handlers leave
// their routes unregistered.
type Options struct {
	Config          config.AppConfig
	Logger          *slog.Logger
	HealthHandler   http.Handler
	Authenticator   *middleware.JWTAuthenticator
	InvoiceHandler  *invoicehttp.Handler
	UploadHandler   *invoicehttp.UploadHandler
	TaxpayerHandler *taxpayerhttp.Handler
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	r.Route("/api", func(api chi.Router) {
		if opts.Authenticator != nil {
			api.Use(opts.Authenticator.Middleware)
		}

		if h := opts.UploadHandler; h != nil {
			api.Post("/upload/factura", h.Upload)
			api.With(middleware.ExtendedTimeout(opts.Config.HTTP)).Post("/facturas/lote", h.Batch)
			api.Post("/ocr/nota-venta", h.SalesNote)
		}

		if h := opts.InvoiceHandler; h != nil {
			api.Get("/facturas", h.List)
			api.Get("/facturas/resumen", h.Summary)
			api.Get("/facturas/dashboard", h.Dashboard)
			api.Get("/facturas/{id}", h.Get)
			api.Get("/facturas/{id}/original", h.Original)
			api.Patch("/facturas/detalles/{detalleId}/clasificacion", h.Classify)
		}

		if h := opts.TaxpayerHandler; h != nil {
			api.Get("/ruc/{ruc}", h.Lookup)
		}
	})

	srv := &http.Server{
		Addr:         opts.Config.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.Config.HTTP.ReadTimeout,
		WriteTimeout: opts.Config.HTTP.WriteTimeout,
		IdleTimeout:  opts.Config.HTTP.IdleTimeout,
	}

	return &Server{
		cfg:        opts.Config.HTTP,
		log:        opts.Logger,
		httpServer: srv,
		auth:       opts.Authenticator,
	}, nil
}

// Run serves until ctx is cancelled and then drains in-flight requests for
// at most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx := context.Background()
		if s.cfg.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.cfg.ShutdownTimeout)
			defer cancel()
		}
		s.log.Info("Shutting down HTTP server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the authenticator's background JWKS refresh.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}
