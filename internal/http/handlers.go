package http

import (
	"encoding/json"
	"html/template"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"radiometa/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// Refresh outcomes, used as the metrics label.
const (
	refreshAccepted    = "accepted"
	refreshPending     = "pending"
	refreshRateLimited = "rate_limited"
)

type handlers struct {
	deps   Dependencies
	logger *zap.Logger
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type historyResponse struct {
	Tracks []store.Play `json:"tracks"`
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"radiometa"}`))
}

func (h *handlers) readyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.deps.Poller != nil && !h.deps.Poller.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting","service":"radiometa"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready","service":"radiometa"}`))
}

func (h *handlers) nowPlaying(w http.ResponseWriter, _ *http.Request) {
	if h.deps.NowPlaying == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, statusResponse{
			Status:  "unavailable",
			Message: h.deps.Localizer.T("track.unavailable"),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, h.deps.NowPlaying.Snapshot())
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeJSON(w, http.StatusBadRequest, statusResponse{
				Status:  "error",
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}

	resp := historyResponse{Tracks: []store.Play{}}
	if h.deps.History != nil {
		resp.Tracks = append(resp.Tracks, h.deps.History.Recent(limit)...)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	client := clientAddr(r)

	if h.deps.Limiter != nil && !h.deps.Limiter.Allow(client) {
		h.recordRefresh(refreshRateLimited)
		h.logger.Info("Refresh rate limited", zap.String("client", client))
		h.writeJSON(w, http.StatusTooManyRequests, statusResponse{
			Status:  refreshRateLimited,
			Message: h.deps.Localizer.T("error.refresh.rate_limited"),
		})
		return
	}

	if h.deps.Poller == nil || !h.deps.Poller.RefreshNow() {
		h.recordRefresh(refreshPending)
		h.writeJSON(w, http.StatusConflict, statusResponse{
			Status:  refreshPending,
			Message: h.deps.Localizer.T("error.refresh.pending"),
		})
		return
	}

	h.recordRefresh(refreshAccepted)
	h.logger.Debug("Refresh accepted", zap.String("client", client))
	h.writeJSON(w, http.StatusAccepted, statusResponse{
		Status:  refreshAccepted,
		Message: h.deps.Localizer.T("success.refresh.accepted"),
	})
}

func (h *handlers) recordRefresh(outcome string) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.RecordRefresh(outcome)
	}
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}

// clientAddr identifies the caller for rate limiting. RealIP has already
// replaced RemoteAddr when the request came through a proxy.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="utf-8">
    <title>radiometa</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .accent { border-left: 6px solid {{.Accent}}; padding-left: 12px; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="accent">
    {{- if .NowPlaying}}
        <p class="now-playing">{{.NowPlaying}}</p>
    {{- else}}
        <p class="unavailable">{{.Message}}</p>
    {{- end}}
    {{- if .Artwork}}
        <img src="{{.Artwork}}" alt="" width="300">
    {{- end}}
    {{- range .Links}}
        <a href="{{.URL}}">{{.Label}}</a>
    {{- end}}
    </div>

    <h2>{{.HistoryTitle}}</h2>
    <ul>
    {{- range .History}}
        <li>{{.Line}}{{if .FirstHeard}} <em>{{$.FirstHeardLabel}}</em>{{end}}</li>
    {{- end}}
    </ul>

    <h2>Endpoints</h2>
    <div class="endpoint"><a href="/api/nowplaying">/api/nowplaying</a> - now playing JSON</div>
    <div class="endpoint"><a href="/api/history">/api/history</a> - recently played</div>
    <div class="endpoint"><a href="/metrics">/metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">/healthz</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">/readyz</a> - Readiness check</div>
</body>
</html>
`))

type homeLink struct {
	Label string
	URL   string
}

type homeEntry struct {
	Line       string
	FirstHeard bool
}

type homePage struct {
	Lang            string
	Title           string
	NowPlaying      string
	Message         string
	Artwork         string
	Accent          string
	Links           []homeLink
	HistoryTitle    string
	FirstHeardLabel string
	History         []homeEntry
}

func homeHandler(deps Dependencies, logger *zap.Logger) http.HandlerFunc {
	loc := deps.Localizer

	return func(w http.ResponseWriter, _ *http.Request) {
		page := homePage{
			Lang:            loc.Language(),
			Title:           loc.T("page.title"),
			Message:         loc.T("track.unavailable"),
			Accent:          "#cccccc",
			HistoryTitle:    loc.T("page.history"),
			FirstHeardLabel: loc.T("track.first_heard"),
		}

		if deps.NowPlaying != nil {
			snap := deps.NowPlaying.Snapshot()
			if snap.Message != "" {
				page.Message = snap.Message
			}
			if snap.Available && snap.Track != nil {
				page.NowPlaying = loc.T("format.now_playing", snap.Track.Artist, snap.Track.Title)
				if snap.Track.Album != "" {
					page.NowPlaying += loc.T("format.album", snap.Track.Album)
				}
				if snap.Track.Year != "" {
					page.NowPlaying += loc.T("format.year", snap.Track.Year)
				}
				for _, l := range snap.Track.Links {
					page.Links = append(page.Links, homeLink{Label: l.Label, URL: l.URL})
				}
				if snap.Track.ReleaseLink != nil {
					page.Links = append(page.Links, homeLink{Label: snap.Track.ReleaseLink.Label, URL: snap.Track.ReleaseLink.URL})
				}
			}
			page.Artwork = snap.Artwork.URL
			if snap.Artwork.Accent != "" {
				page.Accent = snap.Artwork.Accent
			}
		}

		if deps.History != nil {
			for _, p := range deps.History.Recent(defaultHistoryLimit) {
				page.History = append(page.History, homeEntry{
					Line:       loc.T("format.now_playing", p.Artist, p.Title),
					FirstHeard: p.FirstHeard,
				})
			}
		}

		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if err := homeTemplate.Execute(w, page); err != nil {
			logger.Warn("Failed to render home page", zap.Error(err))
		}
	}
}
