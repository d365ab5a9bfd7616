// Package text parses free-form "now playing" strings into artist and title.
package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// Separator splits the artist from the title.
	Separator = " - "
	// UnknownArtist is shown when a title carries no artist.
	UnknownArtist = "Unknown Artist"
	// KeySeparator joins artist and title into a cache key. It cannot occur
	// in either field, so distinct pairs never share a key.
	KeySeparator = "\x00"
	// minArtistTitleParts is the number of segments needed to detect an artist.
	minArtistTitleParts = 2
)

var (
	parenGroupRegex   = regexp.MustCompile(` *\([^)]*\) *`)
	bracketGroupRegex = regexp.MustCompile(` *\[[^\]]*\] *`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

// Title is the parsed form of a raw station title.
type Title struct {
	Artist    string // Empty when HasArtist is false.
	HasArtist bool
	Title     string // Cleaned track name, possibly empty.
	FullTitle string // Cleaned string before the artist split.
}

// DisplayArtist returns the artist or the UnknownArtist sentinel.
func (t Title) DisplayArtist() string {
	if !t.HasArtist {
		return UnknownArtist
	}
	return t.Artist
}

// Key identifies the track for caching and in-flight de-duplication.
func (t Title) Key() string {
	return t.DisplayArtist() + KeySeparator + t.Title
}

// Empty reports whether there is nothing to look up.
func (t Title) Empty() bool {
	return t.Title == ""
}

// Parser turns raw station titles into artist and title. It holds no state
// and is safe for concurrent use.
type Parser struct{}

// NewParser creates a new title parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse cleans raw and splits it on Separator. The first segment becomes the
// artist; the remaining segments are rejoined so titles containing the
// separator survive. Empty input yields an empty title, never an error.
func (p *Parser) Parse(raw string) Title {
	cleaned := p.Clean(raw)
	if cleaned == "" {
		return Title{}
	}

	parts := strings.Split(cleaned, Separator)
	if len(parts) < minArtistTitleParts {
		return Title{Title: cleaned, FullTitle: cleaned}
	}

	return Title{
		Artist:    strings.TrimSpace(parts[0]),
		HasArtist: true,
		Title:     strings.TrimSpace(strings.Join(parts[1:], Separator)),
		FullTitle: cleaned,
	}
}

// ParseTitle parses raw with a default Parser.
func ParseTitle(raw string) Title {
	return NewParser().Parse(raw)
}

// Clean applies NFKC normalisation, removes every (...) and [...] group,
// collapses whitespace and trims.
func (p *Parser) Clean(raw string) string {
	text := norm.NFKC.String(raw)
	text = strings.ReplaceAll(text, KeySeparator, "")

	text = parenGroupRegex.ReplaceAllString(text, " ")
	text = bracketGroupRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
