package i18n

// berneseGermanMessages contains all Bernese Swiss German (Bärndütsch) translations
var berneseGermanMessages = map[string]string{
	// Track display
	"track.unavailable":    "Kei Infos zum Lied verfüegbar",
	"track.unknown_artist": "Unbekannte Künschtler",
	"track.no_title":       "Kei Infos zum Lied",
	"track.first_heard":    "Z ersch Mau am Radio",

	// Outbound links
	"link.discogs":  "Discogs",
	"link.lastfm":   "Last.fm",
	"link.bandcamp": "Bandcamp",
	"link.release":  "Das Album finde",

	// Format helpers
	"format.now_playing": "%s - %s",
	"format.album":       " (Album: %s)",
	"format.year":        " (%s)",

	// Status page
	"page.title":   "Jitz am Loufe",
	"page.history": "Zletscht gspilt",

	// Refresh trigger
	"success.refresh.accepted":   "Lueg grad nache, was louft.",
	"error.refresh.pending":      "Es louft scho es Update.",
	"error.refresh.rate_limited": "Z viu Aafrage. Wart es Momäntli, bitte.",
	"error.generic":              "Öppis isch schief gloffe. Probier's haut nomau, bitte.",
}
