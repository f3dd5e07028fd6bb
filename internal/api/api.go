// Package api exposes the workflow as a small JSON HTTP API. Every call is
// a self-contained request/response; the server keeps no per-user state.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satindergrewal/okecreator/internal/audio"
	"github.com/satindergrewal/okecreator/internal/ffmpeg"
	"github.com/satindergrewal/okecreator/internal/library"
	"github.com/satindergrewal/okecreator/internal/runner"
	"github.com/satindergrewal/okecreator/internal/studio"
	"github.com/satindergrewal/okecreator/internal/take"
)

// PeerCounter reports connected preview peers.
type PeerCounter interface {
	PeerCount() int
}

// ListenerCounter reports connected HTTP preview listeners.
type ListenerCounter interface {
	ListenerCount() int
}

// Server routes API calls to the studio service and the preview player.
type Server struct {
	svc       *studio.Service
	player    *audio.Player
	listeners ListenerCounter
	peers     PeerCounter
	logger    *zap.Logger
	mux       *http.ServeMux
}

// New builds the API routes. Stream handlers are mounted by the caller.
func New(svc *studio.Service, player *audio.Player, listeners ListenerCounter, peers PeerCounter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, player: player, listeners: listeners, peers: peers, logger: logger, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /api/pitch", s.handlePitch)
	s.mux.HandleFunc("GET /api/downloads", s.handleDownloads)
	s.mux.HandleFunc("GET /api/songs", s.handleSongs)
	s.mux.HandleFunc("GET /api/songs/{song}", s.handleSong)
	s.mux.HandleFunc("POST /api/separate", s.handleSeparate)
	s.mux.HandleFunc("POST /api/convert", s.handleConvert)
	s.mux.HandleFunc("POST /api/preview", s.handlePreview)
	s.mux.HandleFunc("POST /api/skip", s.handleSkip)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	return s
}

// Handle mounts an extra handler, such as the preview streams.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// RunResponse is the JSON form of a runner.Result.
type RunResponse struct {
	RunID          string      `json:"run_id"`
	Succeeded      bool        `json:"succeeded"`
	Command        string      `json:"command"`
	Diagnostic     string      `json:"diagnostic,omitempty"`
	ErrorKind      runner.Kind `json:"error_kind,omitempty"`
	Error          string      `json:"error,omitempty"`
	ElapsedSeconds float64     `json:"elapsed_seconds"`
}

func runResponse(id string, res runner.Result, elapsedSeconds float64) RunResponse {
	out := RunResponse{
		RunID:          id,
		Succeeded:      res.Succeeded,
		Command:        res.Command,
		Diagnostic:     res.Diagnostic,
		ErrorKind:      res.Kind(),
		ElapsedSeconds: elapsedSeconds,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func (s *Server) handlePitch(w http.ResponseWriter, r *http.Request) {
	lo, hi := s.svc.Table().Range()
	writeJSON(w, http.StatusOK, map[string]any{
		"min":     lo,
		"max":     hi,
		"entries": s.svc.Table().Entries(),
	})
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	srcs, err := s.svc.Library().Sources()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if srcs == nil {
		srcs = []library.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dir": s.svc.Library().Downloads, "files": srcs})
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.svc.Library().Songs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if songs == nil {
		songs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dir": s.svc.Library().Work, "songs": songs})
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name
}

func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	song := r.PathValue("song")
	if !validName(song) {
		writeError(w, http.StatusBadRequest, "invalid song")
		return
	}
	lib := s.svc.Library()
	stems := lib.Stems(song)
	if len(stems) == 0 {
		writeError(w, http.StatusNotFound, "no separated stems for "+song)
		return
	}
	byName := make(map[string]string, len(stems))
	for t, p := range stems {
		byName[t.Token()] = p
	}
	takes, err := lib.Takes(song)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	names := make([]string, 0, len(takes))
	for _, p := range takes {
		names = append(names, filepath.Base(p))
	}
	original, _ := lib.Original(song)
	writeJSON(w, http.StatusOK, map[string]any{
		"song":     song,
		"stems":    byName,
		"original": original,
		"takes":    names,
	})
}

func (s *Server) handleSeparate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		File string `json:"file"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validName(req.File) {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	src, err := s.svc.Library().Source(req.File)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	res := s.svc.Separate(r.Context(), src.Path)
	stems := make(map[string]string, len(res.Stems))
	for t, p := range res.Stems {
		stems[t.Token()] = p
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result": runResponse(res.RunID, res.Result, res.Elapsed.Seconds()),
		"song":   res.Song,
		"stems":  stems,
	})
}

// ConvertBody is the JSON body of POST /api/convert.
type ConvertBody struct {
	Song       string `json:"song"`
	Type       string `json:"type"`
	Key        int    `json:"key"`
	Formant    *bool  `json:"formant,omitempty"`
	Profile    string `json:"profile"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Version    int    `json:"version,omitempty"`
	OutputName string `json:"output_name,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

func (b ConvertBody) request() (studio.ConvertRequest, error) {
	if !validName(b.Song) {
		return studio.ConvertRequest{}, errors.New("invalid song")
	}
	t, err := take.ParseType(b.Type)
	if err != nil {
		return studio.ConvertRequest{}, err
	}
	profile := ffmpeg.Profile44k
	if b.Profile != "" {
		if profile, err = ffmpeg.ParseProfile(b.Profile); err != nil {
			return studio.ConvertRequest{}, err
		}
	}
	return studio.ConvertRequest{
		Song:       b.Song,
		Type:       t,
		Semitones:  b.Key,
		Formant:    b.Formant,
		Profile:    profile,
		SampleRate: b.SampleRate,
		Version:    b.Version,
		OutputName: strings.TrimSuffix(b.OutputName, take.Ext),
	}, nil
}

func planStatus(err error) int {
	switch {
	case errors.Is(err, library.ErrOriginalNotFound), errors.Is(err, library.ErrStemNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrNoFreeVersion):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var body ConvertBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req, err := body.request()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if body.DryRun {
		plan, err := s.svc.Plan(req)
		if err != nil {
			writeError(w, planStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"command":      plan.Invocation.String(),
			"argv":         plan.Invocation.Argv(),
			"output":       plan.Request.Output,
			"version":      plan.Spec.Version,
			"formant":      plan.Request.Formant,
			"out_of_range": plan.OutOfRange,
		})
		return
	}

	res, err := s.svc.Convert(r.Context(), req)
	if err != nil {
		writeError(w, planStatus(err), err.Error())
		return
	}
	resp := map[string]any{
		"result":  runResponse(res.RunID, res.Result, res.Elapsed.Seconds()),
		"output":  res.Output,
		"version": res.Plan.Spec.Version,
	}
	if res.Probe != nil {
		resp["probe"] = res.Probe
	}
	if res.ProbeErr != nil {
		resp["probe_error"] = res.ProbeErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Song string `json:"song"`
		File string `json:"file"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validName(req.Song) || !validName(req.File) {
		writeError(w, http.StatusBadRequest, "invalid song or file")
		return
	}
	path := filepath.Join(s.svc.Library().Work, req.Song, req.File)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "no such take")
		return
	}
	info := audio.TakeInfo{
		ID:   uuid.NewString(),
		Song: req.Song,
		Path: path,
		Name: strings.TrimSuffix(req.File, filepath.Ext(req.File)),
	}
	if err := s.player.Enqueue(info); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.logger.Info("preview queued", zap.String("take", info.Name), zap.String("id", info.ID))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": info.ID, "queue_size": s.player.QueueSize()})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.player.Skip()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cur, pos, dur := s.player.Status()
	status := map[string]any{
		"take":       cur,
		"position":   pos.Seconds(),
		"duration":   dur.Seconds(),
		"queue_size": s.player.QueueSize(),
		"crossfade":  s.player.Crossfade().Seconds(),
	}
	if s.listeners != nil {
		status["http_listeners"] = s.listeners.ListenerCount()
	}
	if s.peers != nil {
		status["webrtc_listeners"] = s.peers.PeerCount()
	}
	writeJSON(w, http.StatusOK, status)
}
