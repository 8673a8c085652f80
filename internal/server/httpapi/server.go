// Package httpapi exposes the sync engine and file workflows over HTTP.
//
// The surface is deliberately thin: decode inputs, invoke a service, map
// sentinel errors to status codes. Authentication is out of scope; the
// owner principal arrives pre-authenticated in the X-Owner-ID header.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dbelovs/syncbox/internal/logging"
	"github.com/dbelovs/syncbox/internal/server/services"
)

type Server struct {
	address         string
	logger          logging.Logger
	sync            *services.SyncService
	files           *services.FileService
	maxArchiveBytes int64
	shutdownTimeout time.Duration
}

func NewServer(address string, l logging.Logger, sync *services.SyncService, files *services.FileService, maxArchiveBytes int64, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         address,
		logger:          l.With("module", "http_server"),
		sync:            sync,
		files:           files,
		maxArchiveBytes: maxArchiveBytes,
		shutdownTimeout: shutdownTimeout,
	}
}

// Router assembles the route table. Exposed separately so tests can drive
// the handlers through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/sync", otelhttp.NewHandler(http.HandlerFunc(s.handleEvaluate), "POST /api/sync")).Methods(http.MethodPost)
	api.Handle("/sync/{sessionID}", otelhttp.NewHandler(http.HandlerFunc(s.handleFulfill), "POST /api/sync/{sessionID}")).Methods(http.MethodPost)

	api.Handle("/files/archive", otelhttp.NewHandler(http.HandlerFunc(s.handleIngest), "POST /api/files/archive")).Methods(http.MethodPost)
	api.Handle("/files", otelhttp.NewHandler(http.HandlerFunc(s.handleUpload), "POST /api/files")).Methods(http.MethodPost)
	api.Handle("/files", otelhttp.NewHandler(http.HandlerFunc(s.handleList), "GET /api/files")).Methods(http.MethodGet)
	api.Handle("/files/{fileID}", otelhttp.NewHandler(http.HandlerFunc(s.handleGet), "GET /api/files/{fileID}")).Methods(http.MethodGet)
	api.Handle("/files/{fileID}/content", otelhttp.NewHandler(http.HandlerFunc(s.handleDownload), "GET /api/files/{fileID}/content")).Methods(http.MethodGet)
	api.Handle("/files/{fileID}", otelhttp.NewHandler(http.HandlerFunc(s.handleUpdate), "PUT /api/files/{fileID}")).Methods(http.MethodPut)
	api.Handle("/files/{fileID}", otelhttp.NewHandler(http.HandlerFunc(s.handleDelete), "DELETE /api/files/{fileID}")).Methods(http.MethodDelete)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "server shutdown", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
