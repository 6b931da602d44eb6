package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/corpuschat/corpuschat/internal/config"
	"github.com/corpuschat/corpuschat/internal/corpus"
	"github.com/corpuschat/corpuschat/internal/ragapi"
	"github.com/corpuschat/corpuschat/internal/utils"
)

// Server is the local HTTP service wrapping the sync engine and the remote
// query passthrough.
type Server struct {
	cfg    *config.Config
	engine *corpus.Engine
	ledger *corpus.Ledger
	api    *ragapi.Client
	server *http.Server
	flock  *flock.Flock
}

func New(cfg *config.Config) (*Server, error) {
	api, err := ragapi.New(cfg.APIURL, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	ledger := corpus.NewLedger(cfg.LedgerPath())
	engine := corpus.NewEngine(api, ledger, corpus.UploaderConfig{
		MaxAttempts:     cfg.Upload.MaxAttempts,
		BackoffBase:     cfg.Upload.BackoffBase,
		PollInterval:    cfg.Upload.PollInterval,
		MaxPolls:        cfg.Upload.MaxPolls,
		PostUploadDelay: cfg.Upload.PostUploadDelay,
	})
	engine.TargetCount = cfg.TargetCount

	s := &Server{
		cfg:    cfg,
		engine: engine,
		ledger: ledger,
		api:    api,
		flock:  flock.New(cfg.LockPath()),
	}
	s.server = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: SetupRoutes(s),
	}
	return s, nil
}

// Start runs the service until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("corpuschat server start", "addr", s.cfg.HTTPAddr, "data", s.cfg.DataDir)
	defer slog.Info("corpuschat server stop")

	if err := utils.EnsureDir(s.cfg.DataDir); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}

	locked, err := s.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another corpuschat instance holds %s", s.cfg.LockPath())
	}
	defer s.flock.Unlock()

	if err := s.ledger.Open(); err != nil {
		return err
	}
	defer s.ledger.Close()
	// drain in-flight background syncs before the ledger goes away
	defer s.engine.Wait()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
