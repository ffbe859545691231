package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/earshelf/earshelf/internal/audit"
	"github.com/earshelf/earshelf/internal/clock"
	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/database"
	auditRepo "github.com/earshelf/earshelf/internal/database/audit"
	"github.com/earshelf/earshelf/internal/database/devices"
	"github.com/earshelf/earshelf/internal/database/progress"
	"github.com/earshelf/earshelf/internal/database/sessions"
	"github.com/earshelf/earshelf/internal/database/settings"
	http_controllers "github.com/earshelf/earshelf/internal/http"
	"github.com/earshelf/earshelf/internal/scheduler"
	"github.com/earshelf/earshelf/internal/services"
	"github.com/earshelf/earshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds everything Run starts.
type App struct {
	Database  *database.Database
	Audit     *audit.Service
	Sessions  *sessions.Repository
	Playback  *services.PlaybackService
	Tasks     *tasks.Client // nil when the task queue is disabled
	Scheduler *scheduler.MaintenanceScheduler
	Router    *gin.Engine
}

// Build opens storage and wires repositories, services and background
// work. Nothing is started.
func Build(cfg *config.Config, version string) (*App, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	clk := clock.New()
	app := &App{
		Database: db,
		Audit:    audit.NewService(auditRepo.NewRepository(db.DB)),
		Sessions: sessions.NewRepository(db.DB, clk),
	}
	app.Playback = services.NewPlaybackService(
		progress.NewRepository(db.DB, progress.NewRewindPolicy(cfg.Rewind), clk),
		settings.NewRepository(db.DB),
		app.Sessions,
		devices.NewRepository(db.DB),
		app.Audit,
	)

	checks := map[string]http_controllers.Pinger{"database": db}

	if cfg.Tasks.Enabled {
		app.Tasks, err = tasks.NewClient(cfg.Tasks)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		app.Tasks.Register(
			tasks.NewCloseAbandonedSessionsQueue(app.Sessions, app.Audit),
			tasks.NewCleanupAuditEventsQueue(app.Audit, app.Audit),
		)
		app.Scheduler = scheduler.NewMaintenanceScheduler(app.Tasks, scheduler.MaintenanceJobs(cfg)...)
		checks["tasks"] = app.Tasks
	}

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Version: version,
		Checks:  checks,
		Quiet:   cfg.Database.Quiet,
	})
	return app, nil
}

// Close releases storage. Pending audit events are flushed first.
func (a *App) Close() {
	a.Audit.Wait()
	if a.Tasks != nil {
		if err := a.Tasks.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	if err := a.Database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is syscall.SIGINT, kill (no param) sends syscall.SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Earshelf v%s", version)

	app, err := Build(cfg, version)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()
	log.Printf("Storage: %s", app.Database.Dialect())

	var taskCtxCancel context.CancelFunc
	if app.Tasks != nil {
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go app.Tasks.Start(taskCtx)

		if err := app.Scheduler.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled: abandoned sessions and old audit events will not be cleaned up")
	}

	onShutdown := func(ctx context.Context) {
		if app.Tasks != nil && taskCtxCancel != nil {
			app.Scheduler.Stop()
			app.Tasks.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(app.Router, cfg, onShutdown)
}
