package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/joelkehle/jobcost/internal/diagnostics"
	"github.com/joelkehle/jobcost/internal/project"
)

const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeMethod     = "method_not_allowed"
	CodeCanceled   = "canceled"
	CodeInternal   = "internal"

	maxBodyBytes = 1 << 20
)

// Estimator is the single call contract served over HTTP.
type Estimator interface {
	Estimate(ctx context.Context, req project.Request) (project.Estimate, error)
}

type Server struct {
	estimator Estimator
	events    diagnostics.Lister
}

// NewServer builds the handler. events may be nil when no queryable
// diagnostics sink is configured.
func NewServer(est Estimator, events diagnostics.Lister) http.Handler {
	s := &Server{estimator: est, events: events}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/estimates", s.handleEstimates)
	mux.HandleFunc("/v1/project-types", s.handleProjectTypes)
	mux.HandleFunc("/v1/diagnostics", s.handleDiagnostics)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

type estimateRequest struct {
	ProjectType string `json:"project_type"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

func (s *Server) handleEstimates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var in estimateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid json: "+err.Error())
		return
	}
	typ, err := project.Parse(in.ProjectType)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	est, err := s.estimator.Estimate(r.Context(), project.Request{
		ProjectType: typ,
		Description: in.Description,
		Address:     in.Address,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Client went away.
			writeError(w, http.StatusServiceUnavailable, CodeCanceled, err.Error())
			return
		}
		log.Printf("estimate failed: %v", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type projectTypeView struct {
	ID    project.Type  `json:"id"`
	Label string        `json:"label"`
	Range project.Range `json:"range"`
}

func (s *Server) handleProjectTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	out := make([]projectTypeView, 0, len(project.All()))
	for _, t := range project.All() {
		out = append(out, projectTypeView{ID: t, Label: t.Label(), Range: t.Range()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "project_types": out})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if s.events == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "diagnostics store not configured")
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	if limit <= 0 || limit > 500 {
		writeError(w, http.StatusBadRequest, CodeValidation, "limit must be between 1 and 500")
		return
	}
	events, err := s.events.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "events": events})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	blob, err := json.Marshal(payload)
	if err != nil {
		log.Printf("encode response: %v", err)
		status = http.StatusInternalServerError
		blob = []byte(`{"ok":false,"error":{"code":"internal","message":"failed to encode response"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(blob, '\n'))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func writeMethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, CodeMethod, "method not allowed")
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(blob))) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(blob, dst)
}

func parseInt(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return v
}
