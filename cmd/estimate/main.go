package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/joelkehle/jobcost/internal/diagnostics"
	"github.com/joelkehle/jobcost/internal/estimator"
	"github.com/joelkehle/jobcost/internal/project"
)

func main() {
	typeFlag := flag.String("type", "", "Project type (e.g. kitchen, roofing, homeImprovement)")
	description := flag.String("description", "", "Free-text project description")
	address := flag.String("address", "", "Project address")
	seed := flag.Uint64("seed", 0, "Seed for simulated estimates (0 = random)")
	flag.Parse()

	typ, err := project.Parse(*typeFlag)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := estimator.Config{Sink: diagnostics.LogSink{}}
	if caller, err := estimator.NewAnthropicCallerFromEnv(); err == nil {
		cfg.Caller = caller
	}
	if *seed != 0 {
		s := *seed
		cfg.Rand = func() *rand.Rand { return rand.New(rand.NewPCG(s, s)) }
	}
	svc := estimator.NewService(cfg)

	est, err := svc.GenerateEstimate(ctx, typ, *description, *address)
	if err != nil {
		log.Fatal(err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(est); err != nil {
		log.Fatal(err)
	}
}
