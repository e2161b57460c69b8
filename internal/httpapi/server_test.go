package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joelkehle/jobcost/internal/diagnostics"
	"github.com/joelkehle/jobcost/internal/estimator"
	"github.com/joelkehle/jobcost/internal/project"
)

type failingCaller struct{}

func (failingCaller) Call(context.Context, string) (string, error) {
	return "", &estimator.HTTPStatusFailure{Code: 503}
}

type replyCaller string

func (c replyCaller) Call(context.Context, string) (string, error) {
	return string(c), nil
}

func newServerForTest(t *testing.T, caller estimator.Caller) (http.Handler, *diagnostics.SQLiteSink) {
	t.Helper()
	sink, err := diagnostics.NewSQLiteSink(filepath.Join(t.TempDir(), "diag.db"))
	if err != nil {
		t.Fatalf("new sqlite sink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	svc := estimator.NewService(estimator.Config{
		Caller: caller,
		Rand:   func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) },
		Sink:   sink,
	})
	return NewServer(svc, sink), sink
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		OK    bool `json:"ok"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	if payload.OK {
		t.Fatalf("expected ok=false in %s", rr.Body.String())
	}
	return payload.Error.Code
}

func TestCreateEstimateSimulated(t *testing.T) {
	h, _ := newServerForTest(t, nil)
	rr := postJSON(t, h, "/v1/estimates", map[string]string{
		"project_type": "home_improvement",
		"description":  "replace deck boards",
		"address":      "5 Oak Ave",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got project.Estimate
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Source != project.SourceSimulation {
		t.Errorf("source=%s", got.Source)
	}
	if got.EstimatedCost <= 0 || got.SuggestedTimeline <= 0 {
		t.Errorf("estimate=%+v", got)
	}
	if !strings.Contains(rr.Body.String(), `"suggested_timeline_days"`) {
		t.Errorf("missing timeline field: %s", rr.Body.String())
	}
}

func TestCreateEstimateFallbackRecordsDiagnostics(t *testing.T) {
	h, _ := newServerForTest(t, failingCaller{})
	rr := postJSON(t, h, "/v1/estimates", map[string]string{"project_type": "roofing"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got project.Estimate
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Source != project.SourceFallback {
		t.Fatalf("source=%s", got.Source)
	}

	rr = get(t, h, "/v1/diagnostics?limit=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Events []diagnostics.Event `json:"events"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Events) != 1 || payload.Events[0].Kind != diagnostics.KindClientFailure || payload.Events[0].ProjectType != "roofing" {
		t.Fatalf("events=%+v", payload.Events)
	}
}

func TestCreateEstimateOverflowingReply(t *testing.T) {
	h, _ := newServerForTest(t, replyCaller(`{"total_cost": 1e400, "timeline_days": 10}`))
	rr := postJSON(t, h, "/v1/estimates", map[string]string{"project_type": "fencing"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got project.Estimate
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	if got.Source != project.SourceAPI || got.EstimatedCost <= 0 || got.SuggestedTimeline != 10 {
		t.Errorf("estimate=%+v", got)
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]any{"v": math.Inf(1)})
	if rr.Code != http.StatusInternalServerError || decodeError(t, rr) != CodeInternal {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateEstimateValidation(t *testing.T) {
	h, _ := newServerForTest(t, nil)

	rr := postJSON(t, h, "/v1/estimates", map[string]string{"project_type": "spaceship"})
	if rr.Code != http.StatusBadRequest || decodeError(t, rr) != CodeValidation {
		t.Fatalf("unknown type: status=%d body=%s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates", strings.NewReader("{not json"))
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	if bad.Code != http.StatusBadRequest || decodeError(t, bad) != CodeValidation {
		t.Fatalf("bad json: status=%d body=%s", bad.Code, bad.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/estimates", strings.NewReader(""))
	empty := httptest.NewRecorder()
	h.ServeHTTP(empty, req)
	if empty.Code != http.StatusBadRequest {
		t.Fatalf("empty body: status=%d", empty.Code)
	}
}

func TestEstimatesMethodNotAllowed(t *testing.T) {
	h, _ := newServerForTest(t, nil)
	rr := get(t, h, "/v1/estimates")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("Allow") != http.MethodPost {
		t.Errorf("allow=%q", rr.Header().Get("Allow"))
	}
}

func TestProjectTypes(t *testing.T) {
	h, _ := newServerForTest(t, nil)
	rr := get(t, h, "/v1/project-types")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var payload struct {
		ProjectTypes []projectTypeView `json:"project_types"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.ProjectTypes) != len(project.All()) {
		t.Fatalf("types=%d want=%d", len(payload.ProjectTypes), len(project.All()))
	}
	first := payload.ProjectTypes[0]
	if first.ID != project.Kitchen || first.Range.Cost != [2]float64{22000, 32000} {
		t.Errorf("first=%+v", first)
	}
}

func TestDiagnosticsWithoutStore(t *testing.T) {
	svc := estimator.NewService(estimator.Config{Sink: diagnostics.Nop{}})
	h := NewServer(svc, nil)
	rr := get(t, h, "/v1/diagnostics")
	if rr.Code != http.StatusNotFound || decodeError(t, rr) != CodeNotFound {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDiagnosticsLimitValidation(t *testing.T) {
	h, _ := newServerForTest(t, nil)
	for _, q := range []string{"0", "-3", "abc", "501"} {
		rr := get(t, h, "/v1/diagnostics?limit="+q)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status=%d", q, rr.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	h, _ := newServerForTest(t, nil)
	rr := get(t, h, "/v1/health")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}
