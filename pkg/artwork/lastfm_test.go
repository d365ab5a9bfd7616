package artwork

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLastFM(t *testing.T, body string) (*LastFMProvider, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "track.getInfo" {
			t.Errorf("method = %q, want track.getInfo", q.Get("method"))
		}
		if q.Get("api_key") != "key" {
			t.Errorf("api_key = %q, want key", q.Get("api_key"))
		}
		_, _ = w.Write([]byte(body))
	}))

	p := NewLastFMProvider("key", "radiometa-test/1.0", time.Second)
	p.baseURL = srv.URL + "/"
	return p, srv
}

func TestLastFMProvider_Lookup(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantURL   string
		wantAlbum string
		wantErr   error
	}{
		{
			name: "largest image",
			body: `{"track":{"album":{"title":"Discovery","image":[
				{"#text":"https://lastfm.example/s.jpg","size":"small"},
				{"#text":"https://lastfm.example/xl.jpg","size":"extralarge"}]}}}`,
			wantURL:   "https://lastfm.example/xl.jpg",
			wantAlbum: "Discovery",
		},
		{
			name: "falls back to first image",
			body: `{"track":{"album":{"title":"Discovery","image":[
				{"#text":"https://lastfm.example/s.jpg"},
				{"#text":""}]}}}`,
			wantURL:   "https://lastfm.example/s.jpg",
			wantAlbum: "Discovery",
		},
		{
			name:    "no album",
			body:    `{"track":{"name":"One More Time"}}`,
			wantErr: ErrNoMatch,
		},
		{
			name:    "track not found",
			body:    `{"error":6,"message":"Track not found"}`,
			wantErr: ErrNoMatch,
		},
		{
			name:    "invalid key",
			body:    `{"error":10,"message":"Invalid API key"}`,
			wantErr: ErrLastFMInvalidAPIKey,
		},
		{
			name:    "rate limited",
			body:    `{"error":29,"message":"Rate limit exceeded"}`,
			wantErr: ErrLastFMRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, srv := newTestLastFM(t, tt.body)
			defer srv.Close()

			got, err := p.Lookup(context.Background(), Query{Artist: "Daft Punk", Title: "One More Time"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Lookup() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.ArtworkURL != tt.wantURL {
				t.Errorf("Lookup() ArtworkURL = %q, want %q", got.ArtworkURL, tt.wantURL)
			}
			if got.Album != tt.wantAlbum {
				t.Errorf("Lookup() Album = %q, want %q", got.Album, tt.wantAlbum)
			}
		})
	}
}

func TestLastFMProvider_RequiresArtist(t *testing.T) {
	p := NewLastFMProvider("key", "ua", time.Second)

	_, err := p.Lookup(context.Background(), Query{Title: "Instrumental"})
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Lookup() without artist error = %v, want ErrNoMatch", err)
	}
}

func TestLastFMProvider_RequiresAPIKey(t *testing.T) {
	p := NewLastFMProvider("", "ua", time.Second)

	_, err := p.Lookup(context.Background(), Query{Artist: "A", Title: "B"})
	if err == nil || errors.Is(err, ErrNoMatch) {
		t.Errorf("Lookup() without key error = %v, want configuration error", err)
	}
}
