package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/JonMunkholm/trialsdata/internal/csvfile"
	"github.com/JonMunkholm/trialsdata/internal/trials"
)

// eventRequest is the JSON form of a "CSV loaded" event.
// Cell values may be strings, numbers or null.
type eventRequest struct {
	Filename string           `json:"filename"`
	Rows     []map[string]any `json:"rows"`
}

type eventResponse struct {
	Handled    bool   `json:"handled"`
	RunID      string `json:"run_id,omitempty"`
	Filename   string `json:"filename"`
	Rows       int    `json:"rows"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	DurationMS int64  `json:"duration_ms"`

	MissingColumns []string `json:"missing_columns,omitempty"`
}

type planOperation struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type planResponse struct {
	Handled    bool            `json:"handled"`
	Filename   string          `json:"filename"`
	Summary    trials.Summary  `json:"summary"`
	Operations []planOperation `json:"operations"`
	Script     string          `json:"script,omitempty"`

	MissingColumns []string `json:"missing_columns,omitempty"`
}

// handleCSVLoaded runs an import for the posted event.
// 200 when the file was imported, 202 when it was not the trials export.
func (s *Server) handleCSVLoaded(w http.ResponseWriter, r *http.Request) {
	filename, rows, err := s.decodeEvent(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.importer.HandleCSVLoaded(r.Context(), rows, filename)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if !res.Handled {
		writeJSON(w, http.StatusAccepted, eventResponse{Handled: false, Filename: res.Filename})
		return
	}

	writeJSON(w, http.StatusOK, eventResponse{
		Handled:    true,
		RunID:      res.RunID.String(),
		Filename:   res.Filename,
		Rows:       res.Rows,
		Inserted:   res.Inserted,
		Updated:    res.Updated,
		DurationMS: res.Duration.Milliseconds(),

		MissingColumns: res.MissingColumns,
	})
}

// handlePlan previews the operations an event would apply.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	filename, rows, err := s.decodeEvent(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	plan, err := s.importer.Plan(r.Context(), rows, filename)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := planResponse{
		Handled:    plan.Handled,
		Filename:   plan.Filename,
		Summary:    plan.Summary,
		Operations: make([]planOperation, 0, len(plan.Operations)),
		Script:     plan.Script,

		MissingColumns: plan.MissingColumns,
	}
	for _, op := range plan.Operations {
		resp.Operations = append(resp.Operations, planOperation{Kind: op.Kind.String(), ID: op.ID})
	}

	status := http.StatusOK
	if !plan.Handled {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := map[string]any{"status": "ok", "database": "ok"}
	if s.limiter != nil {
		resp["runs"] = s.limiter.Status()
	}

	if err := s.db.Ping(ctx); err != nil {
		resp["status"] = "unavailable"
		resp["database"] = trials.MapError(err).Message
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeEvent reads the filename and rows from either a JSON event or a raw
// text/csv body with ?filename= (and optional ?encoding=).
func (s *Server) decodeEvent(w http.ResponseWriter, r *http.Request) (string, []trials.RawRow, error) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	defer body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		return s.decodeCSV(r, body)
	}

	var req eventRequest
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		return "", nil, errBadRequest(fmt.Errorf("invalid event body: %w", err))
	}
	if req.Filename == "" {
		return "", nil, errBadRequest(errors.New("filename is required"))
	}

	rows := make([]trials.RawRow, len(req.Rows))
	for i, m := range req.Rows {
		row := make(trials.RawRow, len(m))
		for k, v := range m {
			row[k] = cellString(v)
		}
		rows[i] = row
	}
	return req.Filename, rows, nil
}

func (s *Server) decodeCSV(r *http.Request, body io.Reader) (string, []trials.RawRow, error) {
	q := r.URL.Query()
	filename := q.Get("filename")
	if filename == "" {
		return "", nil, errBadRequest(errors.New("filename query parameter is required for text/csv"))
	}

	// Other files are not parsed; the importer reports them as not handled.
	if filename != s.cfg.Import.ExpectedFilename {
		return filename, nil, nil
	}

	encoding := q.Get("encoding")
	if encoding == "" {
		encoding = s.cfg.Import.Encoding
	}

	file, err := csvfile.Read(body, csvfile.Options{
		Encoding: encoding,
		MaxSize:  s.cfg.Import.MaxFileSize,
		Required: trials.HeaderHints,
	})
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, csvfile.ErrFileTooLarge) {
			return "", nil, err
		}
		return "", nil, errBadRequest(err)
	}

	return filename, trials.FromMaps(file.Rows), nil
}

// cellString renders a decoded JSON cell. Null becomes "".
func cellString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "Y"
		}
		return "N"
	default:
		return fmt.Sprint(v)
	}
}
