package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subtitler/internal/deps"
	"subtitler/internal/jobs"
	"subtitler/internal/language"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
	"subtitler/internal/preflight"
	"subtitler/internal/services"
)

const (
	multipartMemory = 32 << 20
	maxJSONBody     = 1 << 20
)

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	JobID string `json:"job_id"`
}

// URLRequest is the JSON body accepted by POST /upload.
type URLRequest struct {
	VideoURL   string `json:"video_url"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// JobsResponse is returned by GET /api/jobs.
type JobsResponse struct {
	Jobs []jobs.Job `json:"jobs"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status        string             `json:"status"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Transcription string             `json:"transcription"`
	Translation   string             `json:"translation"`
	Dependencies  []deps.Status      `json:"dependencies"`
	Checks        []preflight.Result `json:"checks"`
	ActiveJobs    int                `json:"active_jobs"`
	TotalJobs     int                `json:"total_jobs"`
}

// LanguagesResponse is returned by GET /api/languages.
type LanguagesResponse struct {
	Languages []language.Language `json:"languages"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		s.uploadFile(w, r)
	case "application/json":
		s.uploadURL(w, r)
	default:
		s.writeError(w, http.StatusBadRequest, "Unsupported content type")
	}
}

func (s *Server) tooLarge(w http.ResponseWriter) {
	s.writeError(w, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("File too large. Maximum file size is %dMB.", s.maxBytes>>20))
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)
	if r.ContentLength > s.maxBytes {
		s.tooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.tooLarge(w)
			return
		}
		s.writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("video_file")
	if err != nil {
		if _, named := r.MultipartForm.Value["video_file"]; named {
			s.writeError(w, http.StatusBadRequest, "No video file selected")
			return
		}
		s.writeError(w, http.StatusBadRequest, "No video file uploaded")
		return
	}
	defer file.Close()
	if strings.TrimSpace(header.Filename) == "" {
		s.writeError(w, http.StatusBadRequest, "No video file selected")
		return
	}
	if !s.cfg.IsAllowedExtension(header.Filename) {
		s.writeError(w, http.StatusBadRequest, "Invalid file type. Please upload a video file.")
		return
	}

	job, err := s.manager.Reserve(jobs.SourceUpload, header.Filename, formValue(r, "source_lang"), formValue(r, "target_lang"))
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	dest := filepath.Join(s.cfg.UploadDir(), job.ID+"_"+SanitizeFilename(header.Filename))
	if err := saveUpload(file, dest); err != nil {
		s.manager.Abort(job.ID, err)
		logging.ErrorWithContext(logger, "upload save failed", "upload_failed",
			logging.String("job_id", job.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the upload directory"),
		)
		s.writeError(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
		return
	}
	if err := s.manager.StartFile(job.ID, dest); err != nil {
		s.writeSubmitError(w, err)
		return
	}
	logger.Info("upload accepted",
		logging.String(logging.FieldEventType, "upload_accepted"),
		logging.String("job_id", job.ID),
		logging.String("file", filepath.Base(dest)),
		logging.Int64("bytes", header.Size),
	)
	s.writeJSON(w, http.StatusOK, UploadResponse{JobID: job.ID})
}

func formValue(r *http.Request, key string) string {
	if r.MultipartForm == nil {
		return ""
	}
	if values := r.MultipartForm.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func saveUpload(src io.Reader, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return err
	}
	return nil
}

func (s *Server) uploadURL(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		s.writeError(w, http.StatusBadRequest, "No video URL provided")
		return
	}
	job, err := s.manager.SubmitURL(req.VideoURL, req.SourceLang, req.TargetLang)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("url accepted",
		logging.String(logging.FieldEventType, "url_accepted"),
		logging.String("job_id", job.ID),
	)
	s.writeJSON(w, http.StatusOK, UploadResponse{JobID: job.ID})
}

func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, services.UserMessage(err))
	case errors.Is(err, pipeline.ErrStopped):
		s.writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
	default:
		s.writeError(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
	}
}

func pathID(r *http.Request, prefix string) string {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	job, ok := s.table.Get(pathID(r, "/status/"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	job, ok := s.table.Get(pathID(r, "/download/"))
	if !ok || !job.Downloadable() {
		s.writeError(w, http.StatusNotFound, "File not ready or not found")
		return
	}
	f, err := os.Open(job.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "File not ready or not found")
			return
		}
		s.logger.Error("download failed", logging.String("job_id", job.ID), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Download failed")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusInternalServerError, "Download failed")
		return
	}
	name := filepath.Base(job.FilePath)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var filter []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := jobs.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		filter = append(filter, status)
	}
	list := s.table.List()
	if len(filter) > 0 {
		kept := list[:0]
		for _, job := range list {
			for _, status := range filter {
				if job.Status == status {
					kept = append(kept, job)
					break
				}
			}
		}
		list = kept
	}
	s.writeJSON(w, http.StatusOK, JobsResponse{Jobs: list})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	dependencies := preflight.CheckSystemDeps(r.Context(), s.cfg)
	checks := preflight.RunAll(r.Context(), s.cfg)
	status := "ok"
	if !deps.Satisfied(dependencies) || !preflight.AllPassed(checks) {
		status = "degraded"
	}
	all := s.table.List()
	active := 0
	for _, job := range all {
		if !job.Status.IsTerminal() {
			active++
		}
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Transcription: s.manager.TranscriptionBackend(),
		Translation:   s.cfg.Translation.Backend,
		Dependencies:  dependencies,
		Checks:        checks,
		ActiveJobs:    active,
		TotalJobs:     len(all),
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, LanguagesResponse{Languages: language.Supported()})
}
