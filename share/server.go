package share

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
)

// crawlerAgents is the fixed allow-list of user-agent substrings that
// get the synthesized Open Graph page instead of the app shell
var crawlerAgents = []string{
	"facebookexternalhit",
	"Facebot",
	"Twitterbot",
	"Slackbot",
	"Discordbot",
	"TelegramBot",
	"WhatsApp",
	"LinkedInBot",
	"Pinterest",
	"Googlebot",
	"bingbot",
}

// defaultMeta is served when a share lookup fails, so crawlers still see
// sensible site-level tags instead of an error page
var defaultMeta = ogMeta{
	Title:       "Saucy",
	Description: "Make AI stickers and animations from your images and GIFs.",
	URL:         "/",
}

type ogMeta struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
	VideoURL    string
	Width       int
	Height      int
}

var ogTemplate = template.Must(template.New("og").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta property="og:type" content="website">
<meta property="og:site_name" content="Saucy">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.URL}}">
{{if .ImageURL}}<meta property="og:image" content="{{.ImageURL}}">
<meta property="og:image:type" content="image/gif">
{{if .Width}}<meta property="og:image:width" content="{{.Width}}">
<meta property="og:image:height" content="{{.Height}}">
{{end}}{{end}}{{if .VideoURL}}<meta property="og:video" content="{{.VideoURL}}">
<meta property="og:video:type" content="video/mp4">
{{end}}<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:title" content="{{.Title}}">
{{if .ImageURL}}<meta name="twitter:image" content="{{.ImageURL}}">
{{end}}</head>
<body>{{.Title}}</body>
</html>
`))

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Saucy</title>
</head>
<body>
<div id="app" data-share-id="{{.}}"></div>
<script src="/static/app.js"></script>
</body>
</html>
`))

// Server is the share HTTP server
type Server struct {
	store   *Store
	hub     *Hub
	logger  *slog.Logger
	siteURL string
}

// NewServer wires a server around an open store. siteURL is the public
// base used in Open Graph urls, e.g. "https://saucy.example".
func NewServer(store *Store, siteURL string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:   store,
		hub:     NewHub(),
		logger:  logger,
		siteURL: strings.TrimSuffix(siteURL, "/"),
	}
}

// Hub exposes the progress hub so generation workers can publish into it
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /gif/{id}", s.handleGIFPage)

	mux.HandleFunc("POST /api/v1/gifs", s.handleCreateGIF)
	mux.HandleFunc("GET /api/v1/gifs/{id}", s.handleGetGIF)
	mux.HandleFunc("GET /api/v1/gifs", s.handleRecentGIFs)

	mux.HandleFunc("PUT /api/v1/keys/{user}", s.handleSaveKey)
	mux.HandleFunc("GET /api/v1/keys/{user}", s.handleGetKey)

	mux.HandleFunc("GET /api/v1/progress/{id}", s.handleProgress)
	mux.HandleFunc("POST /api/v1/progress/{id}", s.handlePostProgress)

	return mux
}

// ListenAndServe runs the server until the listener fails
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("share server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// isCrawler reports whether the user agent belongs to a link-preview bot
func isCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, bot := range crawlerAgents {
		if strings.Contains(ua, strings.ToLower(bot)) {
			return true
		}
	}
	return false
}

// handleGIFPage serves the share page for a GIF. Crawlers get a
// synthesized Open Graph document; browsers get the app shell. A failed
// lookup still renders, with site-default meta for crawlers.
func (s *Server) handleGIFPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if !isCrawler(r.UserAgent()) {
		if err := shellTemplate.Execute(w, id); err != nil {
			s.logger.Warn("render shell", "id", id, "error", err)
		}
		return
	}

	meta := defaultMeta
	meta.URL = s.siteURL + "/"

	rec, err := s.store.GetGIF(r.Context(), id)
	if err == nil {
		meta = ogMeta{
			Title:       rec.Title,
			Description: "Made with Saucy",
			URL:         fmt.Sprintf("%s/gif/%s", s.siteURL, rec.ID),
			ImageURL:    rec.GIFURL,
			VideoURL:    rec.MP4URL,
			Width:       rec.Width,
			Height:      rec.Height,
		}
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.Warn("gif lookup failed", "id", id, "error", err)
	}

	if err := ogTemplate.Execute(w, meta); err != nil {
		s.logger.Warn("render og page", "id", id, "error", err)
	}
}

func (s *Server) handleCreateGIF(w http.ResponseWriter, r *http.Request) {
	var rec GIFRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.store.CreateGIF(r.Context(), rec)
	if err != nil {
		s.logger.Warn("create gif failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Info("gif shared", "id", created.ID, "title", created.Title)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (s *Server) handleGetGIF(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetGIF(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "gif not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Warn("get gif failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleRecentGIFs(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.RecentGIFs(r.Context(), 24)
	if err != nil {
		s.logger.Warn("list gifs failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"gifs": recs})
}

func (s *Server) handleSaveKey(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.SaveUserKey(r.Context(), r.PathValue("user"), payload.Key); err != nil {
		s.logger.Warn("save key failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.store.GetUserKey(r.Context(), r.PathValue("user"))
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "no key stored", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Warn("get key failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"key": key})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, r.PathValue("id"), s.logger)
}

// handlePostProgress ingests a poll update from the generating process
// and fans it out to websocket watchers. The path id wins over any id in
// the body so a publisher cannot cross streams.
func (s *Server) handlePostProgress(w http.ResponseWriter, r *http.Request) {
	var update ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	update.ID = r.PathValue("id")
	if update.ID == "" {
		http.Error(w, "generation id is required", http.StatusBadRequest)
		return
	}

	s.hub.Publish(update)
	w.WriteHeader(http.StatusAccepted)
}
