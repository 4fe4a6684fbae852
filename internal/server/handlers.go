package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/courtroom-viz/internal/fetch"
	"github.com/jonathan/courtroom-viz/internal/pipeline"
	"github.com/jonathan/courtroom-viz/internal/storage"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// runResponse is the JSON view of a finished run
type runResponse struct {
	*types.ResultSet
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Images    map[string]string `json:"images"`
}

func newRunResponse(rs *types.ResultSet) runResponse {
	images := make(map[string]string)
	for _, a := range rs.Artifacts {
		if a.Status == types.ArtifactSuccess {
			images[a.ShotID] = imagePath(rs.RunID, a.ShotID)
		}
	}
	return runResponse{ResultSet: rs, Succeeded: rs.Succeeded(), Failed: rs.Failed(), Images: images}
}

func imagePath(runID uuid.UUID, shotID string) string {
	return "/runs/" + runID.String() + "/images/" + shotID
}

// handleRun runs a case synchronously and returns the result set
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	input, err := s.parseCaseInput(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	rs, err := s.runner.Run(r.Context(), input, nil)
	if err != nil {
		s.logger.Error("run failed", "error", err)
		s.errorResponse(w, err)
		return
	}
	s.runs.Add(rs.RunID, rs)
	s.jsonResponse(w, http.StatusOK, newRunResponse(rs))
}

// handleRunStream runs a case and streams progress as server-sent events
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	input, err := s.parseCaseInput(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	rs, err := s.runner.Run(r.Context(), input, func(event pipeline.ProgressEvent) {
		if werr := sse.WriteProgress(event); werr != nil {
			s.logger.Debug("failed to write progress event", "error", werr)
		}
	})
	if err != nil {
		s.logger.Error("run failed", "error", err)
		sse.WriteError(err)
		return
	}

	s.runs.Add(rs.RunID, rs)
	if err := sse.WriteEvent(EventResult, newRunResponse(rs)); err != nil {
		s.logger.Debug("failed to write result event", "error", err)
	}
	sse.WriteComplete(rs.RunID, pipeline.StatusCompleted)
}

// handleGetRun returns a run from the in-memory cache, or its persisted record
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}

	if rs, ok := s.runs.Get(runID); ok {
		s.jsonResponse(w, http.StatusOK, newRunResponse(rs))
		return
	}

	if s.runStore != nil {
		run, err := s.runStore.GetRun(r.Context(), runID)
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		if run != nil {
			shots, err := s.runStore.ListShots(r.Context(), runID)
			if err != nil {
				s.errorResponse(w, err)
				return
			}
			s.jsonResponse(w, http.StatusOK, map[string]any{"run": run, "artifacts": shots})
			return
		}
	}

	s.errorResponse(w, &ErrNotFound{What: "run", ID: runID.String()})
}

// handleGetImage serves the bytes of one generated image
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}
	shotID := r.PathValue("shot_id")

	artifact, ok, err := s.findArtifact(r, runID, shotID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if !ok || artifact.Status != types.ArtifactSuccess {
		s.errorResponse(w, &ErrNotFound{What: "image", ID: shotID})
		return
	}

	data := artifact.ImageBytes
	if len(data) == 0 && s.store != nil {
		data, err = s.store.Get(r.Context(), runID, storage.ObjectName(artifact.ShotID, artifact.MIMEType))
		if errors.Is(err, storage.ErrNotFound) {
			s.errorResponse(w, &ErrNotFound{What: "image", ID: shotID})
			return
		}
		if err != nil {
			s.errorResponse(w, err)
			return
		}
	}
	if len(data) == 0 {
		s.errorResponse(w, &ErrNotFound{What: "image", ID: shotID})
		return
	}

	mimeType := artifact.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write image", "error", err)
	}
}

func (s *Server) findArtifact(r *http.Request, runID uuid.UUID, shotID string) (types.GeneratedArtifact, bool, error) {
	if rs, ok := s.runs.Get(runID); ok {
		a, found := rs.Artifact(shotID)
		return a, found, nil
	}
	if s.runStore == nil {
		return types.GeneratedArtifact{}, false, nil
	}
	shots, err := s.runStore.ListShots(r.Context(), runID)
	if err != nil {
		return types.GeneratedArtifact{}, false, err
	}
	for _, a := range shots {
		if a.ShotID == shotID {
			return a, true, nil
		}
	}
	return types.GeneratedArtifact{}, false, nil
}

// parseCaseInput reads a multipart form: case fields, "documents" files and
// "document_urls" to fetch
func (s *Server) parseCaseInput(w http.ResponseWriter, r *http.Request) (*types.CaseInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, &ErrValidation{Field: "body", Message: err.Error()}
		}
		if err := r.ParseForm(); err != nil {
			return nil, &ErrValidation{Field: "body", Message: err.Error()}
		}
	}

	in := types.CaseInput{
		FreeText:     strings.TrimSpace(r.FormValue("text")),
		Style:        s.defaultStyle,
		QualityLevel: s.defaultQuality,
	}

	caseType := r.FormValue("case_type")
	if caseType == "" {
		caseType = string(types.CaseTypeOther)
	}
	ct, err := types.ParseCaseType(caseType)
	if err != nil {
		return nil, &ErrValidation{Field: "case_type", Message: err.Error()}
	}
	in.CaseType = ct

	if v := r.FormValue("style"); v != "" {
		style, err := types.ParseStyle(v)
		if err != nil {
			return nil, &ErrValidation{Field: "style", Message: err.Error()}
		}
		in.Style = style
	}
	if v := r.FormValue("quality"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ErrValidation{Field: "quality", Message: "must be a number"}
		}
		in.QualityLevel = q
	}

	opts, err := types.ParseOptions(r.Form["options"])
	if err != nil {
		return nil, &ErrValidation{Field: "options", Message: err.Error()}
	}
	in.Options = opts
	in.Focus = types.Focus{
		EvidenceTypes:      types.SplitList(r.Form["evidence_types"]...),
		FocusAreas:         types.SplitList(r.Form["focus_areas"]...),
		CustomInstructions: strings.TrimSpace(r.FormValue("custom_instructions")),
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["documents"] {
			f, err := fh.Open()
			if err != nil {
				return nil, &ErrValidation{Field: "documents", Message: err.Error()}
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return nil, &ErrValidation{Field: "documents", Message: err.Error()}
			}
			in.Documents = append(in.Documents, types.NewDocument(fh.Filename, data))
		}
	}

	for _, u := range types.SplitList(r.Form["document_urls"]...) {
		doc, err := fetch.Document(r.Context(), u, s.fetchOptions)
		if err != nil {
			return nil, &ErrValidation{Field: "document_urls", Message: err.Error()}
		}
		in.Documents = append(in.Documents, doc)
	}

	return types.NewCaseInput(in)
}
