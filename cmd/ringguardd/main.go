package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/haukened/ringguard/internal/screen/common/clock"
	"github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/config"
	"github.com/haukened/ringguard/internal/screen/domain"
	"github.com/haukened/ringguard/internal/screen/gateways/httpapi"
	"github.com/haukened/ringguard/internal/screen/metrics"
	"github.com/haukened/ringguard/internal/screen/repos/allowlist"
	"github.com/haukened/ringguard/internal/screen/repos/allowlist/bloom"
	"github.com/haukened/ringguard/internal/screen/repos/contacts"
	contactcache "github.com/haukened/ringguard/internal/screen/repos/contacts/lru"
	"github.com/haukened/ringguard/internal/screen/repos/policy"
	"github.com/haukened/ringguard/internal/screen/repos/rejectionlog"
	"github.com/haukened/ringguard/internal/screen/repos/state"
	"github.com/haukened/ringguard/internal/screen/repos/state/bolt"
	"github.com/haukened/ringguard/internal/screen/services/bridge"
	"github.com/haukened/ringguard/internal/screen/services/screening"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "ringguardd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the screening daemon
type Application struct {
	config    *config.AppConfig
	store     state.Store
	server    *httpapi.Server
	engine    *screening.Engine
	bridge    *bridge.Service
	directory *contacts.FileDirectory
	cache     *contactcache.CachedDirectory
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":      version,
		"env":          cfg.Env,
		"log_level":    cfg.Log.Level,
		"port":         cfg.HTTP.Port,
		"store":        cfg.Store.Path,
		"contacts_dir": cfg.Contacts.Dir,
		"timezone":     cfg.Screening.Timezone,
		"role":         cfg.Platform.Role,
	}, "Starting "+appName)

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				app.ReloadContacts()
				continue
			}
			log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
			cancel()
			return
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	loc, err := cfg.Screening.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	clk := clock.RealClock{Location: loc}

	role, err := domain.ParseRoleState(cfg.Platform.Role)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	store, err := bolt.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	st := store.Stats()
	if st.Repaired > 0 {
		log.Warn(map[string]any{"dropped": st.Repaired}, "Dropped unreadable rejection log entries")
	}
	log.Info(map[string]any{
		"path":       cfg.Store.Path,
		"rejections": st.Rejections,
		"allowed":    st.Allowed,
	}, "State store opened")

	app := &Application{config: cfg, store: store}
	if err := app.wire(cfg, clk, role, logger); err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func (app *Application) wire(cfg *config.AppConfig, clk clock.Clock, role domain.RoleState, logger log.Logger) error {
	policyRepo := policy.New(app.store, log.With(logger, map[string]any{"component": "policy"}))
	rejections := rejectionlog.New(app.store, log.With(logger, map[string]any{"component": "rejectionlog"}))
	allowRepo := allowlist.New(allowlist.Options{
		Store:   app.store,
		Factory: bloom.NewFactory(),
		FPRate:  cfg.AllowList.FPRate,
		Logger:  log.With(logger, map[string]any{"component": "allowlist"}),
	})

	directory, err := app.buildDirectory(cfg, logger)
	if err != nil {
		return err
	}

	platform := bridge.NewStaticPlatform(role)
	m := metrics.New()
	if n, err := rejections.Count(); err == nil {
		m.SetRejectionLogSize(n)
	}
	if err := app.observe(m); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	engine, err := screening.NewEngine(screening.Options{
		AllowList:     allowRepo,
		Clock:         clk,
		Directory:     directory,
		Logger:        log.With(logger, map[string]any{"component": "screening"}),
		LookupTimeout: cfg.Screening.LookupTimeout,
		Platform:      platform,
		Policy:        policyRepo,
		Recorder:      m,
		Rejections:    rejections,
	})
	if err != nil {
		return fmt.Errorf("failed to build screening engine: %w", err)
	}

	svc, err := bridge.NewService(bridge.Options{
		AllowList: allowRepo,
		Logger:    log.With(logger, map[string]any{"component": "bridge"}),
		Observer:  m,
		Platform:  platform,
		Policy:    policyRepo,
		Rejection: rejections,
	})
	if err != nil {
		return fmt.Errorf("failed to build bridge: %w", err)
	}

	app.engine = engine
	app.bridge = svc
	app.server = httpapi.NewServer(httpapi.Options{
		Addr:      fmt.Sprintf(":%d", cfg.HTTP.Port),
		Bridge:    svc,
		Screener:  engine,
		Metrics:   m,
		Logger:    log.With(logger, map[string]any{"component": "http"}),
		RateLimit: cfg.HTTP.RateLimit,
		Burst:     cfg.HTTP.Burst,
	})
	return nil
}

// buildDirectory loads the contact files. A missing or unreadable directory
// does not stop the daemon: lookups then fail and screening allows.
func (app *Application) buildDirectory(cfg *config.AppConfig, logger log.Logger) (screening.Directory, error) {
	var base contacts.Directory
	if cfg.Contacts.Dir == "" {
		log.Warn(nil, "No contact directory configured, screening will allow every call")
		base = contacts.Unavailable{Err: errors.New("contact directory not configured")}
	} else {
		fd, err := contacts.NewFileDirectory(cfg.Contacts.Dir, log.With(logger, map[string]any{"component": "contacts"}))
		if err != nil {
			log.Warn(map[string]any{"error": err, "dir": cfg.Contacts.Dir}, "Contact directory unavailable, screening will allow every call")
			base = contacts.Unavailable{Err: err}
		} else {
			app.directory = fd
			base = fd
		}
	}

	dir, err := contactcache.New(base, cfg.Contacts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact cache: %w", err)
	}
	if cd, ok := dir.(*contactcache.CachedDirectory); ok {
		app.cache = cd
		log.Info(map[string]any{"type": "LRU", "size": cfg.Contacts.CacheSize}, "Contact lookup cache configured")
	}
	return dir, nil
}

// observe exports store and contact directory sizes through m.
func (app *Application) observe(m *metrics.Metrics) error {
	if err := m.ObserveAllowList(func() uint64 { return app.store.Stats().Allowed }); err != nil {
		return err
	}
	if app.directory != nil {
		if err := m.ObserveContactDirectory(app.directory.Len); err != nil {
			return err
		}
	}
	if app.cache != nil {
		cache := app.cache
		return m.ObserveContactCache(func() metrics.CacheStats {
			st := cache.Stats()
			return metrics.CacheStats{Size: st.Size, Hits: st.Hits, Misses: st.Misses, Evictions: st.Evictions}
		})
	}
	return nil
}

// ReloadContacts re-reads the contact files and drops cached lookups.
func (app *Application) ReloadContacts() {
	if app.directory == nil {
		log.Warn(nil, "Contact reload requested but no directory is loaded")
		return
	}
	if err := app.directory.Reload(); err != nil {
		log.Error(map[string]any{"error": err}, "Contact reload failed, keeping previous contacts")
		return
	}
	if app.cache != nil {
		app.cache.Purge()
	}
	log.Info(map[string]any{"numbers": app.directory.Len()}, "Contacts reloaded")
}

// Run starts the HTTP bridge and blocks until ctx is cancelled
func (app *Application) Run(ctx context.Context) error {
	if err := app.server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.server.Address(),
		"transport": "HTTP",
	}, "Screening bridge started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	done := make(chan error, 1)
	go func() {
		err := app.server.Stop()
		if cerr := app.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(map[string]any{"error": err}, "Error during shutdown")
		}
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-time.After(defaultShutdownTimeout):
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
