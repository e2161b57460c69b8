package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joelkehle/jobcost/internal/diagnostics"
	"github.com/joelkehle/jobcost/internal/estimator"
	"github.com/joelkehle/jobcost/internal/httpapi"
	"github.com/joelkehle/jobcost/internal/telemetry"
)

func main() {
	addr := flag.String("addr", ":8095", "HTTP listen address")
	dbPath := flag.String("diagnostics-db", "", "SQLite file for fallback events (empty = log only)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, "jobcost-estimator")
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		flushCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("warning: flush traces: %v", err)
		}
	}()

	var sink diagnostics.Sink = diagnostics.LogSink{}
	var events diagnostics.Lister
	if path := strings.TrimSpace(*dbPath); path != "" {
		store, err := diagnostics.NewSQLiteSink(path)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
		sink = diagnostics.Multi(diagnostics.LogSink{}, store)
		events = store
	}

	svc := estimator.NewServiceFromEnv(sink)
	handler := httpapi.NewServer(svc, events)

	log.Printf("estimator listening on %s (simulated=%v, diagnostics-db=%q)", *addr, svc.Simulated(), *dbPath)
	srv := &http.Server{Addr: *addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
