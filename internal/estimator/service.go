package estimator

import (
	"context"
	"errors"
	"log"
	"math"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joelkehle/jobcost/internal/diagnostics"
	"github.com/joelkehle/jobcost/internal/extract"
	"github.com/joelkehle/jobcost/internal/project"
	"github.com/joelkehle/jobcost/internal/simulate"
)

const (
	DefaultAPIReasoning = "AI-generated estimate based on project details"

	tracerName     = "github.com/joelkehle/jobcost/internal/estimator"
	maxListLen     = 3
	maxReasonBytes = 300

	// Ten years; anything longer is treated as a bogus reply.
	maxTimelineDays = 3650
)

// RandFactory returns a fresh random source for one estimate.
type RandFactory func() *rand.Rand

func defaultRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

type Config struct {
	// Caller is nil when no credential is configured.
	Caller Caller
	Rand   RandFactory
	Sink   diagnostics.Sink
	Tracer trace.Tracer
}

// Service is the estimation entry point. Its fields are read-only after
// construction, so one Service serves concurrent estimates.
type Service struct {
	caller  Caller
	newRand RandFactory
	sink    diagnostics.Sink
	tracer  trace.Tracer
}

func NewService(cfg Config) *Service {
	s := &Service{
		caller:  cfg.Caller,
		newRand: cfg.Rand,
		sink:    cfg.Sink,
		tracer:  cfg.Tracer,
	}
	if s.newRand == nil {
		s.newRand = defaultRand
	}
	if s.sink == nil {
		s.sink = diagnostics.LogSink{}
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// NewServiceFromEnv wires the Anthropic caller when a credential is present
// and runs simulation-only otherwise.
func NewServiceFromEnv(sink diagnostics.Sink) *Service {
	cfg := Config{Sink: sink}
	caller, err := NewAnthropicCallerFromEnv()
	switch {
	case err == nil:
		log.Printf("estimator: using model %s", caller.ModelName())
		cfg.Caller = caller
	case errors.Is(err, ErrNoCredential):
		log.Printf("estimator: no API credential, estimates will be simulated")
	default:
		log.Printf("estimator: %v, estimates will be simulated", err)
	}
	return NewService(cfg)
}

// Simulated reports whether every estimate skips the API.
func (s *Service) Simulated() bool { return s.caller == nil }

func (s *Service) GenerateEstimate(ctx context.Context, t project.Type, description, address string) (project.Estimate, error) {
	return s.Estimate(ctx, project.Request{ProjectType: t, Description: description, Address: address})
}

// Estimate always returns a populated result. The only error is the
// context's own, returned when ctx ends while the API call is in flight;
// no fallback runs in that case.
func (s *Service) Estimate(ctx context.Context, req project.Request) (project.Estimate, error) {
	ctx, span := s.tracer.Start(ctx, "estimator.GenerateEstimate",
		trace.WithAttributes(attribute.String("project.type", string(req.ProjectType))))
	defer span.End()

	engine := simulate.New(s.newRand())
	if s.caller == nil {
		est := engine.Estimate(req.ProjectType, req.Description)
		span.SetAttributes(attribute.String("estimate.source", string(est.Source)))
		return est, nil
	}

	raw, err := s.caller.Call(ctx, BuildPrompt(req.ProjectType, req.Address, req.Description))
	if ctxErr := ctx.Err(); ctxErr != nil {
		span.RecordError(ctxErr)
		span.SetStatus(codes.Error, "canceled")
		return project.Estimate{}, ctxErr
	}
	if err != nil {
		return s.fallback(ctx, span, engine, req, diagnostics.KindClientFailure, err), nil
	}

	obj, err := extract.Object(raw)
	if err != nil {
		return s.fallback(ctx, span, engine, req, diagnostics.KindExtractionFailure, &ExtractionFailure{Err: err}), nil
	}

	est := fromAPI(engine, req.ProjectType, obj)
	span.SetAttributes(attribute.String("estimate.source", string(est.Source)))
	return est, nil
}

// fallback simulates using the caller's own description, never the model
// text, so prose in a failed response cannot trigger complexity keywords.
func (s *Service) fallback(ctx context.Context, span trace.Span, engine *simulate.Engine, req project.Request, kind diagnostics.Kind, cause error) project.Estimate {
	reason := truncate(cause.Error(), maxReasonBytes)
	span.AddEvent("estimate.fallback", trace.WithAttributes(
		attribute.String("fallback.kind", string(kind)),
		attribute.String("fallback.reason", reason),
	))
	s.sink.Record(ctx, diagnostics.Event{Kind: kind, ProjectType: string(req.ProjectType), Reason: reason})

	est := engine.Estimate(req.ProjectType, req.Description)
	est.Source = project.SourceFallback
	span.SetAttributes(attribute.String("estimate.source", string(est.Source)))
	return est
}

// fromAPI maps the extracted object onto an Estimate. Absent or mistyped
// fields fall back to simulation defaults.
func fromAPI(engine *simulate.Engine, t project.Type, obj gjson.Result) project.Estimate {
	total, ok := number(obj.Get("total_cost"), false)
	if !ok {
		total = engine.BaselineCost(t)
	}
	materials, ok := number(obj.Get("materials_cost"), true)
	if !ok {
		materials = total * simulate.MaterialsShare
	}
	labor, ok := number(obj.Get("labor_cost"), true)
	if !ok {
		labor = total * simulate.LaborShare
	}

	days := 0
	if v, ok := number(obj.Get("timeline_days"), false); ok && v <= maxTimelineDays {
		days = int(math.Round(v))
	}
	if days < 1 {
		days = engine.TimelineDays(t)
	}

	reasoning := DefaultAPIReasoning
	if r := obj.Get("reasoning"); r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
		reasoning = strings.TrimSpace(r.Str)
	}

	return project.Estimate{
		EstimatedCost:     total,
		MaterialsCost:     materials,
		LaborCost:         labor,
		Reasoning:         reasoning,
		SuggestedTimeline: days,
		RiskFactors:       stringList(obj.Get("risk_factors")),
		Recommendations:   stringList(obj.Get("recommendations")),
		Source:            project.SourceAPI,
	}
}

func number(r gjson.Result, allowZero bool) (float64, bool) {
	if r.Type != gjson.Number || math.IsInf(r.Num, 0) || math.IsNaN(r.Num) {
		return 0, false
	}
	if r.Num > 0 || (allowZero && r.Num == 0) {
		return r.Num, true
	}
	return 0, false
}

// stringList keeps distinct non-empty strings, at most three.
func stringList(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	seen := map[string]struct{}{}
	for _, item := range r.Array() {
		if item.Type != gjson.String {
			continue
		}
		v := strings.TrimSpace(item.Str)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == maxListLen {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
