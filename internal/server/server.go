// Package server exposes claims and bills over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/otmeal-dev/otmeal/internal/bills"
	"github.com/otmeal-dev/otmeal/internal/claims"
)

// Options wires the server to its backing services.
type Options struct {
	Root    string // project root, for the inbox import
	Claims  *claims.Service
	Bills   *bills.Store
	Version string
	Debug   bool
}

// Server is the HTTP front end.
type Server struct {
	router *gin.Engine
	opts   Options
}

// New creates a Server with all routes registered.
func New(opts Options) *Server {
	if !opts.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(), gin.Recovery())

	s := &Server{router: r, opts: opts}
	s.registerRoutes(r.Group("/api"))
	return s
}

func (s *Server) registerRoutes(api *gin.RouterGroup) {
	api.GET("/status", s.getStatus)

	api.GET("/claims", s.getClaims)
	api.GET("/claims/required", s.getRequired)
	api.GET("/claims/log", s.getClaimLog)
	api.POST("/claims", s.postClaims)

	api.GET("/bills", s.listBills)
	api.POST("/bills", s.uploadBill)
	api.GET("/bills/download", s.downloadBill)
	api.POST("/bills/import", s.importInbox)

	api.GET("/ledger/check", s.checkLedger)
}

// Handler returns the router for use with httptest or a custom http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down")
	return srv.Shutdown(shutdownCtx)
}
