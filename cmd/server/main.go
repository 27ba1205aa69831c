package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"onepersonleft.ai/internal/share"
	"onepersonleft.ai/internal/sim/engine"
	"onepersonleft.ai/internal/sim/tuning"
	"onepersonleft.ai/internal/transport/ws"
)

func main() {
	var (
		addr          = flag.String("addr", envOr("OPL_ADDR", ":8080"), "http listen address (or set OPL_ADDR)")
		tuningPath    = flag.String("tuning", envOr("OPL_TUNING", "./configs/tuning.yaml"), "path to tuning.yaml (or set OPL_TUNING)")
		allowedOrigin = flag.String("allowed_origin", envOr("OPL_ALLOWED_ORIGIN", ""), "browser origin allowed on /v1/ws; empty allows any (or set OPL_ALLOWED_ORIGIN)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(strings.TrimSpace(*tuningPath))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}
	eng, err := engine.New(tune)
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}

	schemaJSON, err := share.SchemaJSON()
	if err != nil {
		logger.Fatalf("share schema: %v", err)
	}

	wsSrv := ws.NewServer(eng, logger, *allowedOrigin)
	if *allowedOrigin == "" {
		logger.Printf("allowed origin not set; accepting any origin on /v1/ws")
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", gzhttp.GzipHandler(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})))
	mux.Handle("/metrics", gzhttp.GzipHandler(metricsHandler(wsSrv)))
	mux.Handle("/v1/schema/state", gzhttp.GzipHandler(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/schema+json")
		_, _ = rw.Write(schemaJSON)
	})))
	// Upgrades cannot go through the gzip writer.
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		logger.Printf("shutting down")
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func metricsHandler(src interface{ Metrics() ws.Metrics }) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := src.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP opl_sessions_open Currently connected game sessions.\n")
		fmt.Fprintf(rw, "# TYPE opl_sessions_open gauge\n")
		fmt.Fprintf(rw, "opl_sessions_open %d\n", m.OpenSessions)

		fmt.Fprintf(rw, "# HELP opl_sessions_total Game sessions started since process start.\n")
		fmt.Fprintf(rw, "# TYPE opl_sessions_total counter\n")
		fmt.Fprintf(rw, "opl_sessions_total %d\n", m.TotalSessions)

		fmt.Fprintf(rw, "# HELP opl_ticks_served_total Simulated weeks served across all sessions.\n")
		fmt.Fprintf(rw, "# TYPE opl_ticks_served_total counter\n")
		fmt.Fprintf(rw, "opl_ticks_served_total %d\n", m.TicksServed)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
