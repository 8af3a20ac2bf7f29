package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskora.org/internal/auth"
	"taskora.org/internal/config"
	"taskora.org/internal/httpapi"
	"taskora.org/internal/obs"
	"taskora.org/internal/store/pg"
	"taskora.org/internal/todo"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	hasher := auth.NewHasher(auth.Params{
		Time:        cfg.ArgonTime,
		MemoryKiB:   cfg.ArgonMemoryKiB,
		Parallelism: cfg.ArgonParallelism,
	})
	codec, err := auth.NewCodec(cfg.AuthSecret)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	// Postgres when a DSN is configured, in-memory stores otherwise. The
	// in-memory mode keeps local development database-free.
	var (
		userStore auth.UserStore
		todoStore todo.Store
		probe     httpapi.ReadyProbe
		closeDB   func() error
	)
	if cfg.DatabaseDSN != "" {
		store, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		userStore = store
		todoStore = store.Todos()
		probe = httpapi.ReadyProbe{DB: store.DB()}
		closeDB = store.Close
	} else {
		log.Println("TASKORA_PG_DSN not set, using in-memory stores")
		userStore = auth.NewInMemory()
		todoStore = todo.NewInMemory()
	}

	authSvc, err := auth.NewService(userStore, hasher, codec, auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	resolver, err := auth.NewResolver(codec, userStore)
	if err != nil {
		log.Fatalf("identity resolver: %v", err)
	}
	todoSvc, err := todo.NewService(todoStore)
	if err != nil {
		log.Fatalf("todo service: %v", err)
	}

	api := httpapi.New(probe, version, authSvc, resolver, todoSvc,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSecond),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting taskora-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// gRPC health endpoint, refreshed on the same cadence as k8s probes.
	healthSrv := httpapi.NewHealthServer(probe)
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}
	go func() {
		if err := healthSrv.Serve(grpcLis); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				healthSrv.Refresh(refreshCtx)
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	stopRefresh()
	healthSrv.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)

	if closeDB != nil {
		_ = closeDB()
	}
	log.Println("Stopped")
}
