package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/drstein77/shopsphere/internal/apper"
	"github.com/drstein77/shopsphere/internal/config"
	"github.com/drstein77/shopsphere/internal/controllers"
	"github.com/drstein77/shopsphere/internal/dbkeeper"
	"github.com/drstein77/shopsphere/internal/logger"
	"github.com/drstein77/shopsphere/internal/metrics"
	"github.com/drstein77/shopsphere/internal/middleware"
	"github.com/drstein77/shopsphere/internal/records"
	"github.com/drstein77/shopsphere/internal/session"
	"github.com/drstein77/shopsphere/internal/showcase"
	"github.com/drstein77/shopsphere/internal/storage"
	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

type Server struct {
	ctx    context.Context
	option *config.Options

	mx      sync.Mutex // guards the fields below
	srv     *http.Server
	storage *storage.MemoryStorage
	closed  bool

	Log *logger.Logger
}

// NewServer reads the configuration and builds the logger. Nothing is started yet.
func NewServer(ctx context.Context, args []string) (*Server, error) {
	option := config.NewOptions()
	if err := option.ParseFlags(args); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	nLogger, err := logger.NewLogger(option.LogLevel())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Server{
		ctx:    ctx,
		option: option,
		Log:    nLogger,
	}, nil
}

// Serve wires the application and blocks until the server is shut down.
func (server *Server) Serve() error {
	option := server.option

	var keeper *dbkeeper.DBKeeper
	if dsn := option.DataBaseDSN(); dsn != "" {
		if err := dbkeeper.Migrate(dsn, option.MigrationsPath(), server.Log); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		keeper = dbkeeper.NewDBKeeper(server.ctx, option.DataBaseDSN, server.Log)
	}

	m := metrics.New()

	storageOpts := []storage.Option{
		storage.WithMetrics(m),
		storage.WithShowcaseOptions(showcase.WithConfirmDelay(option.ConfirmDelay())),
		storage.WithSessionIdle(option.SessionIdle()),
	}
	var (
		memoryStorage *storage.MemoryStorage
		err           error
	)
	// a nil *DBKeeper must not reach storage as a non-nil Keeper
	if keeper != nil {
		memoryStorage, err = storage.NewMemoryStorage(server.ctx, keeper, server.Log, storageOpts...)
	} else {
		memoryStorage, err = storage.NewMemoryStorage(server.ctx, nil, server.Log, storageOpts...)
	}
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	if !server.track(memoryStorage, nil) {
		return nil
	}

	client, err := server.recordsClient(keeper)
	if err != nil {
		return err
	}
	services := records.NewServices(client, server.Log, m)

	basecontr := controllers.NewBaseController(server.ctx, memoryStorage, services, server.Log,
		controllers.WithMetrics(m),
		controllers.WithMetricsHandler(m.Handler()),
		controllers.WithCurrency(option.Currency()),
		controllers.WithWidgetConfig(session.WidgetConfig{
			ProjectID: option.ApperProjectID(),
			PublicKey: option.ApperPublicKey(),
			Target:    "#authentication",
			View:      "both",
		}),
	)

	// create router and mount routes
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(server.Log))
	r.Mount("/", basecontr.Route())

	// configure and start the server
	srv := &http.Server{
		Addr:              option.RunAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if !server.track(nil, srv) {
		return nil
	}

	server.Log.Info("Running server", zap.String("address", option.RunAddr()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// track records what Shutdown has to release. Once Shutdown has run nothing
// is recorded; a late storage is closed at once and false is returned.
func (server *Server) track(st *storage.MemoryStorage, srv *http.Server) bool {
	server.mx.Lock()
	defer server.mx.Unlock()

	if server.closed {
		if st != nil {
			st.Close()
		}
		return false
	}
	if st != nil {
		server.storage = st
	}
	if srv != nil {
		server.srv = srv
	}
	return true
}

// recordsClient picks the hosted backend when configured, then the database, then memory.
func (server *Server) recordsClient(keeper *dbkeeper.DBKeeper) (records.Client, error) {
	option := server.option

	if option.ApperBaseURL() != "" {
		client, err := apper.NewClient(option.ApperBaseURL(), option.ApperProjectID(), option.ApperPublicKey())
		if err != nil {
			return nil, fmt.Errorf("failed to create backend client: %w", err)
		}
		server.Log.Info("records are served by the hosted backend", zap.String("url", option.ApperBaseURL()))
		return client, nil
	}

	if keeper != nil {
		server.Log.Info("records are served by the database")
		return keeper, nil
	}

	server.Log.Warn("records are kept in memory")
	return records.NewMemoryClient(), nil
}

// Shutdown stops the HTTP server and releases the storage. It is safe to call
// before or while Serve runs; later calls do nothing.
func (server *Server) Shutdown(timeout time.Duration) {
	server.mx.Lock()
	if server.closed {
		server.mx.Unlock()
		return
	}
	server.closed = true
	srv, st := server.srv, server.storage
	server.mx.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			server.Log.Error("Server shutdown error", zap.Error(err))
		}
	}
	if st != nil {
		st.Close()
	}

	server.Log.Info("Server stopped")
	_ = server.Log.Sync()
}
