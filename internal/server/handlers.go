package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cvforge/internal/content"
	"cvforge/internal/errors"
	"cvforge/internal/export"
	"cvforge/internal/extract"
	"cvforge/internal/layout"
	"cvforge/internal/types"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
)

// Request and response bodies
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type analyzeRequest struct {
	ResumeText string `json:"resumeText"`
	TargetRole string `json:"targetRole,omitempty"`
}

type layoutRequest struct {
	Sections []layout.Section `json:"sections"`
}

type dropRequest struct {
	Sections []layout.Section `json:"sections"`
	Source   layout.SectionID `json:"source"`
	Target   string           `json:"target"`
}

type layoutResponse struct {
	Sections []layout.Section `json:"sections"`
	Changed  *bool            `json:"changed,omitempty"`
}

type activityRequest struct {
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}

type exportRequest struct {
	Content  content.Content  `json:"content"`
	Sections []layout.Section `json:"sections,omitempty"`
}

// healthHandler reports which optional services are wired.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "cvforge",
		"version": s.Version,
		"components": map[string]bool{
			"analysis": s.deps.Analyzer != nil,
			"auth":     s.deps.Auth != nil,
			"backend":  s.deps.Backend != nil,
			"uploads":  s.deps.Uploader != nil,
		},
	}

	if s.deps.Analyzer != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.AppConfig.AI.Timeout)
		defer cancel()
		response["model"] = s.deps.Analyzer.GetModelInfo(ctx)
	}
	if s.RateLimiter != nil {
		response["rate_limit"] = s.RateLimiter.Stats()
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) signUpHandler(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, http.StatusCreated, Authenticator.SignUp)
}

func (s *Server) signInHandler(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, http.StatusOK, Authenticator.SignIn)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, status int,
	fn func(Authenticator, context.Context, string, string) (*types.Session, error)) {
	if s.deps.Auth == nil {
		s.writeError(w, r, s.AppConfig.RequireAuth())
		return
	}

	var req credentialsRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := fn(s.deps.Auth, r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, sess)
}

// analyzeHandler accepts either JSON text or a multipart upload under "file".
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, span := s.deps.Telemetry.Tracer("cvforge.api").Start(ctx, "api.analyze")
	defer span.End()

	if s.deps.Analyzer == nil {
		s.writeError(w, r, s.AppConfig.RequireAI())
		return
	}

	var (
		input types.AnalyzeResumeInput
		err   error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		input, err = s.readUpload(r)
	} else {
		var req analyzeRequest
		err = parseJSONRequest(r, &req)
		input = types.AnalyzeResumeInput{ResumeText: req.ResumeText, TargetRole: req.TargetRole}
	}
	if err != nil {
		span.RecordError(err)
		s.writeError(w, r, err)
		return
	}

	if strings.TrimSpace(input.ResumeText) == "" {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "resume text is required", nil).
			WithContext("field", "resumeText"))
		return
	}
	span.SetAttributes(attribute.Int("request.resume_length", len(input.ResumeText)))

	out, err := s.deps.Analyzer.AnalyzeResume(ctx, input)
	if err != nil {
		span.RecordError(err)
		s.writeError(w, r, err)
		return
	}
	span.SetAttributes(attribute.Int("analysis.overall_score", out.Result.OverallScore))

	s.recordActivity(ctx, "analyze", out.Shape)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) readUpload(r *http.Request) (types.AnalyzeResumeInput, error) {
	if err := r.ParseMultipartForm(s.AppConfig.App.MaxFileSize); err != nil {
		return types.AnalyzeResumeInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid multipart upload", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return types.AnalyzeResumeInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "missing file field", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return types.AnalyzeResumeInput{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read upload", err)
	}

	text, err := extract.ExtractText(extract.DetectMIME(header.Filename, data), data)
	if err != nil {
		return types.AnalyzeResumeInput{}, err
	}
	return types.AnalyzeResumeInput{ResumeText: text, TargetRole: r.FormValue("targetRole")}, nil
}

// registryFrom builds a normalized registry, using the default arrangement
// when no sections are sent.
func registryFrom(sections []layout.Section) (*layout.Registry, error) {
	if len(sections) == 0 {
		return layout.DefaultRegistry(), nil
	}
	reg := layout.NewRegistry(sections)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *Server) normalizeHandler(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	reg, err := registryFrom(req.Sections)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Sections: reg.Sections})
}

func (s *Server) dropHandler(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	reg, err := registryFrom(req.Sections)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	changed := reg.Drop(layout.DropEvent{Source: req.Source, Target: req.Target})
	s.metrics().RecordDrop(r.Context(), changed)
	writeJSON(w, http.StatusOK, layoutResponse{Sections: reg.Sections, Changed: &changed})
}

func (s *Server) listTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	presets, err := s.deps.Templates.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": presets})
}

func (s *Server) getTemplateHandler(w http.ResponseWriter, r *http.Request) {
	preset, err := s.deps.Templates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

// backend returns the backend, or writes the configuration error when none
// is wired.
func (s *Server) backend(w http.ResponseWriter, r *http.Request) (Backend, bool) {
	if s.deps.Backend == nil {
		s.writeError(w, r, s.AppConfig.RequireBackend())
		return nil, false
	}
	return s.deps.Backend, true
}

func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	backend, ok := s.backend(w, r)
	if !ok {
		return
	}

	profile, found, err := backend.GetProfile(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		writeErrorResponse(w, http.StatusNotFound, errors.ErrCodeNotFound, "no profile saved yet")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) saveProfileHandler(w http.ResponseWriter, r *http.Request) {
	backend, ok := s.backend(w, r)
	if !ok {
		return
	}

	var profile types.Profile
	if err := parseJSONRequest(r, &profile); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := backend.SaveProfile(r.Context(), sessionFrom(r.Context()), profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recordActivity(r.Context(), "profile.save", "")
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) listActivityHandler(w http.ResponseWriter, r *http.Request) {
	backend, ok := s.backend(w, r)
	if !ok {
		return
	}

	limit := s.AppConfig.Backend.ActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "limit must be a number", err))
			return
		}
		limit = n
	}

	entries, err := backend.RecentActivity(r.Context(), sessionFrom(r.Context()), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

func (s *Server) appendActivityHandler(w http.ResponseWriter, r *http.Request) {
	backend, ok := s.backend(w, r)
	if !ok {
		return
	}

	var req activityRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, err := backend.AppendActivity(r.Context(), sessionFrom(r.Context()), req.Action, req.Detail)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// exportHandler renders the posted content. With ?upload=true the artifact is
// stored and its key returned instead of the document.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req exportRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	reg, err := registryFrom(req.Sections)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	artifact, err := s.deps.Renderer.Render(ctx, format, &req.Content, reg)
	s.metrics().RecordExport(ctx, string(format), err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recordActivity(ctx, "export", string(format))

	if r.URL.Query().Get("upload") == "true" {
		if s.deps.Uploader == nil {
			s.writeError(w, r, errors.NewConfigError(errors.ErrCodeMissingCredentials,
				"artifact uploads are not configured (set CVFORGE_EXPORT_S3_ENABLED)", nil))
			return
		}
		key, err := s.deps.Uploader.Upload(ctx, artifact)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		artifact.Key = key
		writeJSON(w, http.StatusCreated, artifact)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		s.Logger.Debug("Export response interrupted", "error", err.Error())
	}
}

// recordActivity appends to the caller's activity log when they are signed
// in. Failures are logged, never returned.
func (s *Server) recordActivity(ctx context.Context, action, detail string) {
	sess := sessionFrom(ctx)
	if s.deps.Backend == nil || sess == nil {
		return
	}
	if _, err := s.deps.Backend.AppendActivity(ctx, sess, action, detail); err != nil {
		s.Logger.LogError(err, "Failed to record activity", "action", action)
	}
}
