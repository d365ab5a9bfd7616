package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"radiometa/internal/store"
)

func newTestPipeline(cascade *fakeCascade, links ReleaseLinkResolver) (*Pipeline, *fakePresenter, *store.History) {
	presenter := &fakePresenter{}
	history := store.NewHistory(10, 0.001)
	config := DefaultConfig()
	resolver := NewResolver(cascade, nil, zap.NewNop())
	return NewPipeline(config, resolver, links, presenter, history, nil, zap.NewNop()), presenter, history
}

func availableEvent(raw string) StationEvent {
	return StationEvent{RawTitle: raw, Available: true, At: time.Now()}
}

func TestPipeline_ShowsTrackAndArtwork(t *testing.T) {
	cascade := newFakeCascade()
	cascade.found("One More Time", "https://img.example/omt.jpg", "musicbrainz")
	pipeline, presenter, history := newTestPipeline(cascade, nil)

	pipeline.HandleEvent(context.Background(), availableEvent("Daft Punk - One More Time"))
	pipeline.Wait()

	shown, artwork, cleared, _ := presenter.snapshot()
	if len(shown) != 2 {
		t.Fatalf("ShowTrack() calls = %d, want 2 (initial + enriched)", len(shown))
	}
	if shown[0].DisplayArtist() != "Daft Punk" || shown[0].Title != "One More Time" {
		t.Errorf("first ShowTrack() = %+v", shown[0])
	}
	if shown[1].Source != "musicbrainz" {
		t.Errorf("enriched Source = %q, want musicbrainz", shown[1].Source)
	}
	if len(artwork) != 1 || artwork[0].url != "https://img.example/omt.jpg" || artwork[0].trackID != shown[0].ID {
		t.Errorf("UpdateArtwork() calls = %+v", artwork)
	}
	if len(cleared) != 0 {
		t.Errorf("ClearArtwork() calls = %v, want none", cleared)
	}

	current, ok := pipeline.Current()
	if !ok || current.ArtworkURL != "https://img.example/omt.jpg" {
		t.Errorf("Current() = %+v, %v", current, ok)
	}

	recent := history.Recent(0)
	if len(recent) != 1 || recent[0].ArtworkURL != "https://img.example/omt.jpg" {
		t.Errorf("history = %+v", recent)
	}
}

func TestPipeline_SameRawTitleCausesNoChurn(t *testing.T) {
	cascade := newFakeCascade()
	pipeline, presenter, _ := newTestPipeline(cascade, nil)

	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()
	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()

	shown, _, _, _ := presenter.snapshot()
	if len(shown) != 2 {
		t.Errorf("ShowTrack() calls = %d, want 2", len(shown))
	}
	if got := cascade.callCount("B"); got != 1 {
		t.Errorf("cascade calls = %d, want 1", got)
	}
}

func TestPipeline_NotFoundClearsArtwork(t *testing.T) {
	pipeline, presenter, _ := newTestPipeline(newFakeCascade(), nil)

	pipeline.HandleEvent(context.Background(), availableEvent("Unknown - Track"))
	pipeline.Wait()

	shown, artwork, cleared, _ := presenter.snapshot()
	if len(artwork) != 0 {
		t.Errorf("UpdateArtwork() calls = %+v, want none", artwork)
	}
	if len(cleared) != 1 || cleared[0] != shown[0].ID {
		t.Errorf("ClearArtwork() calls = %v, want [%s]", cleared, shown[0].ID)
	}
}

func TestPipeline_StaleResultIsDropped(t *testing.T) {
	cascade := newFakeCascade()
	cascade.found("Slow", "https://img.example/slow.jpg", "musicbrainz")
	cascade.found("Fast", "https://img.example/fast.jpg", "lastfm")
	gate := cascade.gate("Slow")
	pipeline, presenter, _ := newTestPipeline(cascade, nil)

	pipeline.HandleEvent(context.Background(), availableEvent("A - Slow"))
	pipeline.HandleEvent(context.Background(), availableEvent("B - Fast"))

	// Let the fast lookup settle before the slow one completes.
	deadline := time.Now().Add(time.Second)
	for {
		_, artwork, _, _ := presenter.snapshot()
		if len(artwork) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(gate)
	pipeline.Wait()

	_, artwork, _, _ := presenter.snapshot()
	if len(artwork) != 1 {
		t.Fatalf("UpdateArtwork() calls = %+v, want only the current track", artwork)
	}
	if artwork[0].url != "https://img.example/fast.jpg" {
		t.Errorf("UpdateArtwork() url = %q, want fast artwork", artwork[0].url)
	}

	current, _ := pipeline.Current()
	if current.Title != "Fast" || current.ArtworkURL != "https://img.example/fast.jpg" {
		t.Errorf("Current() = %+v, want enriched B", current)
	}
}

func TestPipeline_Unavailable(t *testing.T) {
	pipeline, presenter, _ := newTestPipeline(newFakeCascade(), nil)

	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()

	fetchErr := &TransportError{Op: "GET", URL: "http://station", Err: errors.New("connection refused")}
	pipeline.HandleEvent(context.Background(), StationEvent{Available: false, Err: fetchErr})

	_, _, _, unavailable := presenter.snapshot()
	if len(unavailable) != 1 || !errors.Is(unavailable[0], fetchErr) {
		t.Errorf("ShowUnavailable() calls = %v", unavailable)
	}
	if _, ok := pipeline.Current(); ok {
		t.Error("Current() should be empty after an unavailable event")
	}
	if ok, err := pipeline.Available(); ok || err == nil {
		t.Errorf("Available() = %v, %v, want false with error", ok, err)
	}

	// The same title after recovery is shown again.
	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()

	shown, _, _, _ := presenter.snapshot()
	if last := shown[len(shown)-1]; last.Title != "B" {
		t.Errorf("ShowTrack() after recovery = %+v", last)
	}
}

func TestPipeline_UnavailableBlipDoesNotReplay(t *testing.T) {
	cascade := newFakeCascade()
	cascade.found("B", "https://img.example/b.jpg", "musicbrainz")
	pipeline, presenter, history := newTestPipeline(cascade, nil)

	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()
	first, _ := pipeline.Current()

	timeout := &TransportError{Op: "GET", URL: "http://station", Err: context.DeadlineExceeded}
	pipeline.HandleEvent(context.Background(), StationEvent{Available: false, Err: timeout})
	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()

	recent := history.Recent(0)
	if len(recent) != 1 {
		t.Fatalf("history = %+v, want one entry", recent)
	}
	if recent[0].Plays != 1 || !recent[0].FirstHeard {
		t.Errorf("history entry = %+v, want a single first-heard play", recent[0])
	}
	if got := cascade.callCount("B"); got != 1 {
		t.Errorf("cascade calls = %d, want 1", got)
	}

	current, ok := pipeline.Current()
	if !ok || current.ID != first.ID {
		t.Errorf("Current() = %+v, %v, want the record from before the outage", current, ok)
	}

	shown, artwork, _, _ := presenter.snapshot()
	if last := shown[len(shown)-1]; last.ID != first.ID || last.ArtworkURL != "https://img.example/b.jpg" {
		t.Errorf("ShowTrack() after recovery = %+v", last)
	}
	if last := artwork[len(artwork)-1]; last.trackID != first.ID || last.url != "https://img.example/b.jpg" {
		t.Errorf("UpdateArtwork() after recovery = %+v", last)
	}
}

func TestPipeline_ResultDuringOutageIsShownOnRecovery(t *testing.T) {
	cascade := newFakeCascade()
	cascade.found("B", "https://img.example/b.jpg", "lastfm")
	gate := cascade.gate("B")
	pipeline, presenter, _ := newTestPipeline(cascade, nil)

	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.HandleEvent(context.Background(), StationEvent{Available: false, Err: errors.New("timeout")})
	close(gate)
	pipeline.Wait()

	_, artwork, _, _ := presenter.snapshot()
	if len(artwork) != 0 {
		t.Fatalf("UpdateArtwork() calls during outage = %+v, want none", artwork)
	}

	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()

	_, artwork, _, _ = presenter.snapshot()
	if len(artwork) != 1 || artwork[0].url != "https://img.example/b.jpg" {
		t.Errorf("UpdateArtwork() calls = %+v, want the artwork resolved during the outage", artwork)
	}
}

func TestPipeline_EmptyTitleSkipsLookup(t *testing.T) {
	cascade := newFakeCascade()
	pipeline, presenter, history := newTestPipeline(cascade, nil)

	pipeline.HandleEvent(context.Background(), availableEvent(""))
	pipeline.Wait()

	shown, _, cleared, _ := presenter.snapshot()
	if len(shown) != 1 || shown[0].Title != "" {
		t.Errorf("ShowTrack() calls = %+v, want one empty record", shown)
	}
	if len(cleared) != 1 {
		t.Errorf("ClearArtwork() calls = %v, want 1", cleared)
	}
	if history.Len() != 0 {
		t.Errorf("history length = %d, want 0", history.Len())
	}
}

func TestPipeline_ReleaseLinkUpgrade(t *testing.T) {
	cascade := newFakeCascade()
	links := &fakeLinks{link: "https://www.discogs.com/release/1", source: "discogs"}
	pipeline, presenter, _ := newTestPipeline(cascade, links)

	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()

	shown, _, _, _ := presenter.snapshot()
	if shown[0].ReleaseLink != "https://bandcamp.com/search?q=A+-+B" {
		t.Errorf("initial ReleaseLink = %q, want bandcamp search", shown[0].ReleaseLink)
	}

	last := shown[len(shown)-1]
	if last.ReleaseLink != "https://www.discogs.com/release/1" || last.LinkSource != "discogs" {
		t.Errorf("upgraded record = %+v", last)
	}
}

func TestPipeline_ReleaseLinkUpgradeDisabled(t *testing.T) {
	cascade := newFakeCascade()
	links := &fakeLinks{link: "https://www.discogs.com/release/1", source: "discogs"}
	pipeline, presenter, _ := newTestPipeline(cascade, links)
	pipeline.config.Links.UpgradeEnabled = false

	pipeline.HandleEvent(context.Background(), availableEvent("A - B"))
	pipeline.Wait()

	shown, _, _, _ := presenter.snapshot()
	for _, rec := range shown {
		if rec.LinkSource != "" {
			t.Errorf("release link upgraded while disabled: %+v", rec)
		}
	}
}
