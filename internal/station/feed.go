// Package station polls a radio station's "now playing" endpoint.
package station

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"

	"radiometa/internal/core"
	"radiometa/pkg/text"
)

// Shape identifies which payload layout a feed used.
type Shape int

const (
	// ShapeFlat is {"title": "Artist - Title"}.
	ShapeFlat Shape = iota
	// ShapeMount is {"/mount": {"artist": "...", "title": "..."}}.
	ShapeMount
	// ShapeIcecast is an Icecast status-json.xsl document.
	ShapeIcecast
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeMount:
		return "mount"
	case ShapeIcecast:
		return "icecast"
	default:
		return "unknown"
	}
}

// Feed is a decoded now-playing payload.
type Feed struct {
	Shape  Shape
	Artist string
	Title  string
}

// RawTitle joins artist and title the way stations announce them.
func (f Feed) RawTitle() string {
	artist := strings.TrimSpace(f.Artist)
	title := strings.TrimSpace(f.Title)

	switch {
	case artist != "" && title != "":
		return artist + text.Separator + title
	case title != "":
		return title
	default:
		return artist
	}
}

// DecodeFeed unwraps an optional JSONP envelope and normalises the payload.
func DecodeFeed(body []byte) (Feed, error) {
	payload, err := unwrapJSONP(body)
	if err != nil {
		return Feed{}, err
	}
	if !gjson.ValidBytes(payload) {
		return Feed{}, &core.FormatError{Reason: "invalid JSON"}
	}

	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return Feed{}, &core.FormatError{Reason: "payload is not an object"}
	}

	if title := root.Get("title"); isText(title) {
		return Feed{Shape: ShapeFlat, Title: title.String()}, nil
	}

	if stats := root.Get("icestats"); stats.IsObject() {
		if feed, ok := decodeIcecast(stats.Get("source")); ok {
			return feed, nil
		}
		return Feed{}, &core.FormatError{Reason: "icecast status has no titled source"}
	}

	var (
		feed  Feed
		found bool
	)
	root.ForEach(func(_, mount gjson.Result) bool {
		if !mount.IsObject() {
			return true
		}
		artist, title := mount.Get("artist"), mount.Get("title")
		if !isText(artist) && !isText(title) {
			return true
		}
		feed = Feed{Shape: ShapeMount, Artist: artist.String(), Title: title.String()}
		found = true
		return false
	})
	if found {
		return feed, nil
	}

	return Feed{}, &core.FormatError{Reason: "unrecognised payload shape"}
}

// unwrapJSONP returns the text between the first '(' and the last ')'.
// Bare JSON passes through unchanged.
func unwrapJSONP(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &core.FormatError{Reason: "empty body"}
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed, nil
	}

	start := bytes.IndexByte(trimmed, '(')
	end := bytes.LastIndexByte(trimmed, ')')
	if start < 0 || end < 0 || end <= start {
		return nil, &core.FormatError{Reason: "unbalanced JSONP envelope"}
	}

	return bytes.TrimSpace(trimmed[start+1 : end]), nil
}

// decodeIcecast picks the first source with a title. Icecast reports a
// single mount as an object and several as an array.
func decodeIcecast(source gjson.Result) (Feed, bool) {
	sources := []gjson.Result{source}
	if source.IsArray() {
		sources = source.Array()
	}

	for _, src := range sources {
		title := strings.TrimSpace(src.Get("title").String())
		if title == "" {
			continue
		}
		return Feed{Shape: ShapeIcecast, Artist: src.Get("artist").String(), Title: title}, true
	}
	return Feed{}, false
}

// isText reports a present string or explicit null field.
func isText(r gjson.Result) bool {
	return r.Exists() && (r.Type == gjson.String || r.Type == gjson.Null)
}
