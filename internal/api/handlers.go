package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/banshee-data/drivestyle/internal/behavior"
	"github.com/banshee-data/drivestyle/internal/db"
	"github.com/banshee-data/drivestyle/internal/features"
	"github.com/banshee-data/drivestyle/internal/httputil"
	"github.com/banshee-data/drivestyle/internal/report"
	"github.com/banshee-data/drivestyle/internal/telemetry"
)

// ClassifyResponse is the body of POST /api/classify.
type ClassifyResponse struct {
	Target     features.Window         `json:"target"`
	Label      string                  `json:"label"`
	Band       string                  `json:"band"`
	Aggressive bool                    `json:"aggressive"`
	Cluster    int                     `json:"cluster"`
	Refined    int                     `json:"refined"`
	Duplicate  bool                    `json:"duplicate"`
	History    int                     `json:"history_windows"`
	Stats      []behavior.ClusterStats `json:"stats"`
	Labels     map[int]behavior.Label  `json:"labels"`
	Warnings   []string                `json:"warnings,omitempty"`
}

// classify summarises an uploaded trip (multipart field "file") and places
// it among the stored windows. The trip is not stored.
func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing 'file' field")
		return
	}
	defer file.Close()

	samples, err := telemetry.ReadSamples(file)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	target, err := s.extract.Summarize(filepath.Base(header.Filename), samples)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	history, err := s.db.ListWindows()
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := s.pipeline.Classify(history, target)
	if err != nil {
		writeError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ClassifyResponse{
		Target:     c.Target,
		Label:      c.Label.String(),
		Band:       c.Label.Band,
		Aggressive: c.Label.Aggressive,
		Cluster:    c.Cluster,
		Refined:    c.Refined,
		Duplicate:  c.Duplicate,
		History:    len(history),
		Stats:      c.Result.Stats,
		Labels:     c.Result.Labels,
		Warnings:   c.Result.Warnings,
	})
}

// pipelineFor returns the server pipeline, or one built with the "method"
// and "split" query overrides.
func (s *Server) pipelineFor(r *http.Request) (*behavior.Pipeline, error) {
	method := r.URL.Query().Get("method")
	split := r.URL.Query().Get("split")
	if method == "" && split == "" {
		return s.pipeline, nil
	}
	cfg := *s.cfg
	if method != "" {
		cfg.InitialMethod = &method
	}
	if split != "" {
		cfg.SplitMethod = &split
	}
	return behavior.NewPipeline(&cfg)
}

// createRun clusters every stored window and stores the output.
func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	p, err := s.pipelineFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	table, err := s.db.ListWindows()
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := p.Run(table)
	if err != nil {
		writeError(w, err)
		return
	}
	runID, err := s.db.InsertRun(res)
	if err != nil {
		writeError(w, err)
		return
	}
	run, err := s.db.GetRun(runID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, run)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.IntParam(r, "limit", 50, 1)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	runs, err := s.db.ListRuns(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetRun(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, run)
}

// runChart renders the PCA scatter of a stored run. The optional "target"
// query parameter highlights one row.
func (s *Server) runChart(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runResult(w, r)
	if !ok {
		return
	}
	target, err := httputil.IntParam(r, "target", report.NoTarget, 0)
	if err != nil || target >= len(res.Windows) {
		httputil.BadRequest(w, "invalid 'target' parameter")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteScatterHTML(w, res, target); err != nil {
		logf("render chart for run %s: %v", r.PathValue("id"), err)
	}
}

func (s *Server) runSizes(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runResult(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := report.WriteSizesPNG(w, res.Sizes, "Initial clusters ("+res.Method+")"); err != nil {
		logf("render sizes for run %s: %v", r.PathValue("id"), err)
	}
}

func (s *Server) runResult(w http.ResponseWriter, r *http.Request) (*behavior.Result, bool) {
	run, err := s.db.GetRun(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	res, err := run.Result()
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return res, true
}

// WindowsResponse is the body of GET /api/windows.
type WindowsResponse struct {
	Total   int               `json:"total"`
	Windows []db.StoredWindow `json:"windows"`
}

func (s *Server) listWindows(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.IntParam(r, "limit", 100, 1)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	offset, err := httputil.IntParam(r, "offset", 0, 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	total, err := s.db.CountWindows()
	if err != nil {
		writeError(w, err)
		return
	}
	windows, err := s.db.ListStoredWindows(limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if windows == nil {
		windows = []db.StoredWindow{}
	}
	httputil.WriteJSON(w, http.StatusOK, WindowsResponse{Total: total, Windows: windows})
}
