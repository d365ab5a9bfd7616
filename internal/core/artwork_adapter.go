package core

import (
	"radiometa/pkg/artwork"
)

// Query converts the record into a cascade query.
func (r TrackRecord) Query() artwork.Query {
	return artwork.Query{
		Artist:    r.Artist,
		Title:     r.Title,
		FullTitle: r.FullTitle,
	}
}

// lookupFromArtwork converts a cascade answer into a cacheable result.
func lookupFromArtwork(res artwork.Result) LookupResult {
	if !res.Found {
		return LookupResult{}
	}

	return LookupResult{
		Found:      true,
		ArtworkURL: res.ArtworkURL,
		Source:     res.Source,
		Album:      res.Album,
		Year:       res.Year,
		Label:      res.Label,
	}
}
