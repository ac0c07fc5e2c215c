package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatehouse.org/internal/bus"
	"gatehouse.org/internal/config"
	"gatehouse.org/internal/httpapi"
	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/perm"
	"gatehouse.org/internal/store"
	"gatehouse.org/internal/tenant"
	"gatehouse.org/internal/user"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var db *sql.DB
	if cfg.PGDSN != "" {
		db, err = store.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
	} else {
		log.Fatal("missing DSN: set GATEHOUSE_PG_DSN")
	}

	b := bus.New(cfg.BusCapacity)

	perms, err := perm.NewService(db, nil, b)
	if err != nil {
		log.Fatalf("permission service: %v", err)
	}
	users, err := user.NewService(db, nil, nil, perms, b)
	if err != nil {
		log.Fatalf("user service: %v", err)
	}
	tenants, err := tenant.NewService(db, nil, nil, perms, b)
	if err != nil {
		log.Fatalf("tenant service: %v", err)
	}

	// Domain subscribers run until shutdown; each gets its own envelope
	// buffer on the bus.
	handlerCtx, stopHandlers := context.WithCancel(context.Background())
	waitHandlers := bus.StartHandlers(handlerCtx, b,
		user.EventLogger{},
		perm.EventLogger{},
		tenant.EventLogger{},
	)

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, users, perms, tenants)
	api.SetLimits(cfg.RateBurst, cfg.RatePerSec, cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	log.Printf("Starting gatehouse-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)

	stopHandlers()
	waitHandlers()

	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
