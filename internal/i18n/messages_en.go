package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Track display
	"track.unavailable":    "Track info unavailable",
	"track.unknown_artist": "Unknown Artist",
	"track.no_title":       "No track info",
	"track.first_heard":    "First time on air",

	// Outbound links
	"link.discogs":  "Discogs",
	"link.lastfm":   "Last.fm",
	"link.bandcamp": "Bandcamp",
	"link.release":  "Find this release",

	// Format helpers
	"format.now_playing": "%s - %s",
	"format.album":       " (Album: %s)",
	"format.year":        " (%s)",

	// Status page
	"page.title":   "Now Playing",
	"page.history": "Recently played",

	// Refresh trigger
	"success.refresh.accepted":   "Refreshing now playing.",
	"error.refresh.pending":      "A refresh is already in progress.",
	"error.refresh.rate_limited": "Too many refresh requests. Please wait a moment.",
	"error.generic":              "Something went wrong. Please try again.",
}
