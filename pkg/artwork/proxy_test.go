package artwork

import (
	"testing"
)

func TestImageProxy_Rewrite(t *testing.T) {
	t.Helper()

	tests := []struct {
		name     string
		base     string
		input    string
		expected string
	}{
		{
			name:     "HTTPS image through weserv",
			base:     "https://images.weserv.nl/",
			input:    "https://i.discogs.com/abc/cover.jpg",
			expected: "https://images.weserv.nl/?url=i.discogs.com%2Fabc%2Fcover.jpg",
		},
		{
			name:     "HTTP scheme stripped",
			base:     "https://images.weserv.nl/",
			input:    "http://lastfm.freetls.fastly.net/i/u/300x300/x.png",
			expected: "https://images.weserv.nl/?url=lastfm.freetls.fastly.net%2Fi%2Fu%2F300x300%2Fx.png",
		},
		{
			name:     "Query string escaped",
			base:     "https://images.weserv.nl/",
			input:    "https://example.com/img?id=1&size=2",
			expected: "https://images.weserv.nl/?url=example.com%2Fimg%3Fid%3D1%26size%3D2",
		},
		{
			name:     "Base with existing query",
			base:     "https://proxy.example/fetch?w=500",
			input:    "https://example.com/a.jpg",
			expected: "https://proxy.example/fetch?w=500&url=example.com%2Fa.jpg",
		},
		{
			name:     "Disabled proxy",
			base:     "",
			input:    "https://example.com/a.jpg",
			expected: "https://example.com/a.jpg",
		},
		{
			name:     "Already proxied",
			base:     "https://images.weserv.nl/",
			input:    "https://images.weserv.nl/?url=example.com%2Fa.jpg",
			expected: "https://images.weserv.nl/?url=example.com%2Fa.jpg",
		},
		{
			name:     "Empty URL",
			base:     "https://images.weserv.nl/",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewImageProxy(tt.base).Rewrite(tt.input)
			if result != tt.expected {
				t.Errorf("Rewrite(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
