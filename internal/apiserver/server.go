// Package apiserver implements the façade's HTTP router, dispatcher, and
// TLS terminator (components C6 and C7): URL parsing, discovery, label
// selectors, error shaping, and serving the Lease/Pod/Service/Deployment
// projections built by internal/projector and internal/lease.
package apiserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baptisterajaut/h2c-api/internal/bridge"
	"github.com/baptisterajaut/h2c-api/internal/compose"
	"github.com/baptisterajaut/h2c-api/internal/config"
	"github.com/baptisterajaut/h2c-api/internal/lease"
	"github.com/baptisterajaut/h2c-api/internal/projector"
)

// systemNamespaces are always enumerable regardless of the compose project,
// matching the discovery/system-namespace guarantee real client libraries
// rely on.
var systemNamespaces = []string{"default", "kube-system", "kube-public"}

// Server is the façade's HTTP server: it wires together the read-side
// projections and the mutable Lease store behind a single ServeMux.
type Server struct {
	cfg     *config.Config
	proj    *projector.Projector
	leases  *lease.Store
	bridge  *bridge.Bridge
	logger  *slog.Logger
	httpSrv *http.Server
}

// New constructs a Server. The runtime bridge is always constructed — it
// never dials eagerly — and its reachability is re-checked per request, per
// the "bridge degrades silently" design note.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	br, err := bridge.New(cfg.RuntimeSocket)
	if err != nil {
		return nil, fmt.Errorf("failed to construct runtime bridge: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		proj:   projector.New(),
		leases: lease.New(),
		bridge: br,
		logger: logger,
	}
	s.httpSrv = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.newMux(),
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// snapshot re-parses the compose file for the current request. There is no
// cache: compose files are small enough that a fresh parse per request is
// cheaper than reasoning about a staleness window, and it satisfies the
// "reflects the file within seconds" contract by construction.
func (s *Server) snapshot() (*compose.Snapshot, error) {
	return compose.Load(s.cfg.ComposePath)
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully. It follows the signal-context + errgroup pattern used for
// long-running HTTP services elsewhere in this codebase's ancestry.
func (s *Server) Run(ctx context.Context) error {
	tlsCert := filepath.Join(s.cfg.SADir, "tls.crt")
	tlsKey := filepath.Join(s.cfg.SADir, "tls.key")

	useTLS := fileExists(tlsCert) && fileExists(tlsKey)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if useTLS {
			cert, cerr := tls.LoadX509KeyPair(tlsCert, tlsKey)
			if cerr != nil {
				return fmt.Errorf("failed to load TLS material from %s: %w", s.cfg.SADir, cerr)
			}
			s.httpSrv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
			s.logger.Info("serving HTTPS", slog.String("addr", s.httpSrv.Addr))
			err = s.httpSrv.ListenAndServeTLS("", "")
		} else {
			s.logger.Info("serving HTTP (no TLS material found)", slog.String("addr", s.httpSrv.Addr), slog.String("sa_dir", s.cfg.SADir))
			err = s.httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
