package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/revenue/internal/amqp"
	"github.com/klokku/revenue/internal/config"
	"github.com/klokku/revenue/internal/database"
	"github.com/klokku/revenue/internal/utils"
	"github.com/klokku/revenue/pkg/report"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, database, broker, router, and server lifecycle.
type Application struct {
	cfg     config.Application
	deps    *Dependencies
	router  *mux.Router
	srv     *http.Server
	closers []func() error
}

// NewApplication connects the optional database and broker and builds the pipeline.
func NewApplication(cfg config.Application) (*Application, error) {
	a := &Application{cfg: cfg}

	var db *sql.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := database.Migrate(db); err != nil {
			a.Close()
			return nil, err
		}
		log.Info("Report store enabled")
	}

	deps, err := BuildDependencies(db, cfg, utils.SystemClock{})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.deps = deps

	if cfg.AMQP.Enabled {
		client, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		amqp.Subscribe(deps.EventBus, client, deps.Clock)
		log.Infof("Report notifications enabled on exchange %s", cfg.AMQP.Exchange)
	}

	a.router = mux.NewRouter()
	SetupMiddleware(a.router)
	RegisterRoutes(a.router, deps)

	a.srv = &http.Server{
		Handler:      a.router,
		Addr:         cfg.Server.Addr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// RunReport generates the report of month (YYYY-MM), or of the current month when empty.
func (a *Application) RunReport(ctx context.Context, month string) (report.Summary, error) {
	m, err := utils.ResolveMonth(month, a.deps.Clock)
	if err != nil {
		return report.Summary{}, err
	}
	return a.deps.ReportService.Generate(ctx, m)
}

// Serve starts the HTTP server and blocks until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("Shutting down server")
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
