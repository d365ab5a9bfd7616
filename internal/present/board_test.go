package present

import (
	"encoding/json"
	"testing"
	"time"
)

func fixedBoard() *Board {
	b := NewBoard()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return at }
	return b
}

func TestBoard_ShowTextAndUnavailable(t *testing.T) {
	b := fixedBoard()

	b.ShowText(TrackView{ID: "1", Artist: "A", Title: "B"})
	snap := b.Snapshot()
	if !snap.Available || snap.Track == nil || snap.Track.Title != "B" {
		t.Fatalf("Snapshot() = %+v", snap)
	}

	b.ShowUnavailable("offline")
	snap = b.Snapshot()
	if snap.Available || snap.Track != nil || snap.Message != "offline" {
		t.Errorf("Snapshot() = %+v, want unavailable", snap)
	}

	b.ShowText(TrackView{ID: "2", Title: "C"})
	if snap = b.Snapshot(); snap.Message != "" {
		t.Errorf("Message = %q, want cleared", snap.Message)
	}
}

func TestBoard_Crossfade(t *testing.T) {
	b := fixedBoard()

	b.Crossfade("", "https://img/1.jpg", 700*time.Millisecond, "#112233")
	b.Crossfade("https://img/1.jpg", "https://img/2.jpg", 700*time.Millisecond, "")

	art := b.Snapshot().Artwork
	if art.URL != "https://img/2.jpg" || art.PreviousURL != "https://img/1.jpg" {
		t.Errorf("Artwork = %+v", art)
	}
	if art.FadeMillis != 700 {
		t.Errorf("FadeMillis = %d, want 700", art.FadeMillis)
	}
	if art.TransitionSeq != 2 {
		t.Errorf("TransitionSeq = %d, want 2", art.TransitionSeq)
	}
	if art.TransitionAt == 0 {
		t.Error("TransitionAt not set")
	}
}

func TestBoard_PreviousLayerDroppedAfterFade(t *testing.T) {
	b := NewBoard()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return at }

	b.Crossfade("https://img/1.jpg", "https://img/2.jpg", 700*time.Millisecond, "")

	b.now = func() time.Time { return at.Add(699 * time.Millisecond) }
	if art := b.Snapshot().Artwork; art.PreviousURL != "https://img/1.jpg" {
		t.Errorf("PreviousURL during fade = %q, want old artwork", art.PreviousURL)
	}

	b.now = func() time.Time { return at.Add(700 * time.Millisecond) }
	art := b.Snapshot().Artwork
	if art.PreviousURL != "" {
		t.Errorf("PreviousURL after fade = %q, want empty", art.PreviousURL)
	}
	if art.URL != "https://img/2.jpg" {
		t.Errorf("URL after fade = %q, want new artwork", art.URL)
	}
}

func TestBoard_ClearArtworkKeepsSize(t *testing.T) {
	b := fixedBoard()
	b.SetArtworkSize(SizeReduced)
	b.Crossfade("", "https://img/1.jpg", time.Second, "#112233")

	b.ClearArtwork()

	art := b.Snapshot().Artwork
	if art.URL != "" || art.Accent != "" {
		t.Errorf("Artwork = %+v, want cleared", art)
	}
	if art.Size != SizeReduced {
		t.Errorf("Size = %v, want reduced", art.Size)
	}
	if art.TransitionSeq != 2 {
		t.Errorf("TransitionSeq = %d, want 2", art.TransitionSeq)
	}
}

func TestBoard_SnapshotIsACopy(t *testing.T) {
	b := fixedBoard()
	b.ShowText(TrackView{Title: "B", Links: []Link{{Name: "discogs", URL: "u"}}})

	snap := b.Snapshot()
	snap.Track.Title = "changed"
	snap.Track.Links[0].URL = "changed"

	again := b.Snapshot()
	if again.Track.Title != "B" || again.Track.Links[0].URL != "u" {
		t.Errorf("Snapshot() shares state with the board: %+v", again.Track)
	}
}

func TestBoard_SnapshotJSON(t *testing.T) {
	b := fixedBoard()
	b.SetArtworkSize(SizeHidden)
	b.ShowText(TrackView{ID: "1", Artist: "A", Title: "B"})

	data, err := json.Marshal(b.Snapshot())
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	artwork, ok := decoded["artwork"].(map[string]any)
	if !ok {
		t.Fatalf("artwork missing in %s", data)
	}
	if artwork["size"] != "hidden" {
		t.Errorf("artwork.size = %v, want hidden", artwork["size"])
	}
}
