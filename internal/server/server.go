// Package server exposes the session over a small HTTP JSON API. It plays
// the role of the GUI shell's backend: file selection, reordering, removal
// and export all arrive here.
package server

import (
	"encoding/json"
	"errors"
	"image/jpeg"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/local/pagebinder/internal/assemble"
	"github.com/local/pagebinder/internal/limiter"
	"github.com/local/pagebinder/internal/preview"
	"github.com/local/pagebinder/internal/session"
	"github.com/local/pagebinder/internal/source"
	"github.com/local/pagebinder/internal/statuscheck"
	"github.com/local/pagebinder/internal/store"
)

// Config holds the server's auth and preview settings.
type Config struct {
	Username             string
	PasswordHash         string // bcrypt; empty disables auth
	ThumbnailMaxEdge     int
	ThumbnailConcurrency int // concurrent renders; <= 0 defaults to 4
}

// Server routes shell requests into the session.
type Server struct {
	cfg    Config
	sess   *session.Session
	status store.StatusStore
	ready  *statuscheck.Checker // nil disables /ready
	thumbs *limiter.Semaphore
}

// New creates the API server. ready may be nil.
func New(cfg Config, sess *session.Session, status store.StatusStore, ready *statuscheck.Checker) *Server {
	n := cfg.ThumbnailConcurrency
	if n <= 0 {
		n = 4
	}
	return &Server{cfg: cfg, sess: sess, status: status, ready: ready, thumbs: limiter.New(n)}
}

// RegisterRoutes attaches all endpoints to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.ready != nil {
		mux.HandleFunc("/ready", s.handleReady)
	}
	mux.HandleFunc("/images", s.requireAuth(s.handleImages))
	mux.HandleFunc("/images/add", s.requireAuth(s.handleAdd))
	mux.HandleFunc("/images/remove", s.requireAuth(s.handleRemove))
	mux.HandleFunc("/images/move", s.requireAuth(s.handleMove))
	mux.HandleFunc("/selection", s.requireAuth(s.handleSelection))
	mux.HandleFunc("/thumbnail", s.requireAuth(s.handleThumbnail))
	mux.HandleFunc("/export", s.requireAuth(s.handleExport))
	mux.HandleFunc("/progress/", s.requireAuth(s.handleProgress))
	mux.HandleFunc("/preview/page", s.requireAuth(s.handlePagePreview))
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.cfg.Username == "" || s.cfg.PasswordHash == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.cfg.Username ||
			bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="pagebinder"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type stateResp struct {
	Locations []string `json:"locations"`
	Selection []int    `json:"selection"`
	Exporting bool     `json:"exporting"`
}

func (s *Server) state() stateResp {
	return stateResp{
		Locations: s.sess.Locations(),
		Selection: s.sess.Selection(),
		Exporting: s.sess.Exporting(),
	}
}

// handleImages: GET returns the ordered state; POST replaces the collection
// with the shell's file-picker result (order preserved, duplicates allowed).
func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.state())
	case http.MethodPost:
		defer r.Body.Close()
		var req struct {
			Locations []string `json:"locations"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.sess.SetImages(req.Locations)
		writeJSON(w, http.StatusOK, s.state())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req struct {
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Location == "" {
		http.Error(w, "missing location", http.StatusBadRequest)
		return
	}
	added := s.sess.AddImage(req.Location)
	writeJSON(w, http.StatusOK, map[string]any{"added": added, "state": s.state()})
}

// handleRemove removes entries by index. The shell confirms destructive
// actions before calling; out-of-range indices are ignored, not errors.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req struct {
		Indices []int `json:"indices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	removed := s.sess.Remove(req.Indices)
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "state": s.state()})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	moved := s.sess.Move(req.From, req.To)
	writeJSON(w, http.StatusOK, map[string]any{"moved": moved, "state": s.state()})
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req struct {
		Op    string `json:"op"` // "select"|"toggle"|"all"|"clear"
		Index int    `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	switch req.Op {
	case "select":
		s.sess.Select(req.Index)
	case "toggle":
		s.sess.Toggle(req.Index)
	case "all":
		s.sess.SelectAll()
	case "clear":
		s.sess.ClearSelection()
	default:
		http.Error(w, "unknown selection op", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	sum := s.ready.Summary(r.Context())
	code := http.StatusOK
	if !sum.Ready() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, sum)
}

// handleThumbnail renders one source image scaled down for the shell's list
// view. Renders decode the full image, so concurrency is capped.
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.thumbs.Acquire(r.Context()); err != nil {
		http.Error(w, "canceled", http.StatusServiceUnavailable)
		return
	}
	defer s.thumbs.Release()
	idx, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	locations := s.sess.Locations()
	if idx < 0 || idx >= len(locations) {
		http.Error(w, "index out of range", http.StatusNotFound)
		return
	}
	img, err := preview.Thumbnail(locations[idx], s.cfg.ThumbnailMaxEdge)
	if err != nil {
		log.Warn().Err(err).Str("file", locations[idx]).Msg("thumbnail failed")
		http.Error(w, "cannot render thumbnail", http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_ = jpeg.Encode(w, img, &jpeg.Options{Quality: 80})
}

// handleExport launches one export job. A request while another job is in
// flight is rejected with 409; the shell decides whether to retry later.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req struct {
		Destination string `json:"destination"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Destination == "" {
		http.Error(w, "missing destination", http.StatusBadRequest)
		return
	}

	jobID, err := s.sess.Export(r.Context(), req.Destination)
	if err != nil {
		if errors.Is(err, session.ErrExportInFlight) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		var ve *assemble.ValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "ok", "job_id": jobID, "message": "export job created",
	})
}

const (
	previewDPI     = 96
	previewQuality = 80
)

// handlePagePreview renders one page of a finished export's document. The
// document is located through the job's recorded destination; remote
// destinations are fetched the same way sources are.
func (s *Server) handlePagePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}

	st, ok, err := s.status.Get(r.Context(), jobID)
	if err != nil {
		http.Error(w, "status store unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	if st.Status != string(assemble.StateDone) {
		http.Error(w, "job not finished", http.StatusConflict)
		return
	}
	dest, _ := st.Metadata["dest"].(string)
	if dest == "" {
		http.Error(w, "document location unknown", http.StatusNotFound)
		return
	}

	if err := s.thumbs.Acquire(r.Context()); err != nil {
		http.Error(w, "canceled", http.StatusServiceUnavailable)
		return
	}
	defer s.thumbs.Release()

	localPath, cleanup, err := source.Resolve(r.Context(), dest)
	if err != nil {
		log.Warn().Err(err).Str("dest", dest).Msg("document fetch failed")
		http.Error(w, "document unavailable", http.StatusNotFound)
		return
	}
	defer cleanup()

	data, _, _, err := preview.RenderPageToJPEG(localPath, page, previewDPI, previewQuality)
	if err != nil {
		log.Warn().Err(err).Str("file", localPath).Int("page", page).Msg("page preview failed")
		http.Error(w, "cannot render page", http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/progress/")
	if jobID == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}
	st, ok, err := s.status.Get(r.Context(), jobID)
	if err != nil {
		http.Error(w, "status store unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
