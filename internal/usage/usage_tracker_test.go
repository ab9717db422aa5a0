package usage

import (
	"context"
	"sync"
	"testing"
)

func TestTracker_TrackAggregates(t *testing.T) {
	tracker := NewTracker()

	tracker.Track(Event{Model: "gemini-2.5-flash", Provider: "genai", Operation: "plan_campaign", InputTokens: 10, OutputTokens: 5})
	tracker.Track(Event{Model: "gemini-2.5-flash", Provider: "genai", Operation: "plan_campaign", InputTokens: 2, OutputTokens: 3})
	tracker.Track(Event{Model: "veo", Provider: "genai", Operation: "generate_video", Failed: true})

	stats := tracker.Stats()
	if stats.Total.Input != 12 || stats.Total.Output != 8 || stats.Total.Total != 20 {
		t.Fatalf("Total=%+v, want input=12 output=8 total=20", stats.Total)
	}
	if stats.Total.Calls != 3 || stats.Total.Failures != 1 {
		t.Fatalf("Total=%+v, want calls=3 failures=1", stats.Total)
	}
	if got := stats.ByProvider["genai"]; got.Calls != 3 {
		t.Fatalf("ByProvider[genai]=%+v, want calls=3", got)
	}
	if got := stats.ByModel["gemini-2.5-flash"]; got.Total != 20 {
		t.Fatalf("ByModel[gemini-2.5-flash]=%+v, want total=20", got)
	}
	if got := stats.ByOperation["generate_video"]; got.Failures != 1 {
		t.Fatalf("ByOperation[generate_video]=%+v, want failures=1", got)
	}
}

func TestTracker_StatsAreCopies(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(Event{Model: "m", Provider: "p", Operation: "op"})

	stats := tracker.Stats()
	stats.ByModel["m"] = Counts{Calls: 99}

	if got := tracker.Stats().ByModel["m"].Calls; got != 1 {
		t.Fatalf("mutating a copy changed the tracker: calls=%d", got)
	}
}

func TestTracker_EventLimit(t *testing.T) {
	tracker := NewTracker()
	tracker.limit = 2
	for _, op := range []string{"a", "b", "c"} {
		tracker.Track(Event{Operation: op})
	}

	events := tracker.Events()
	if len(events) != 2 || events[0].Operation != "b" || events[1].Operation != "c" {
		t.Fatalf("events=%+v, want [b c]", events)
	}
	if got := tracker.Stats().Total.Calls; got != 3 {
		t.Fatalf("calls=%d, want 3", got)
	}
	if got := tracker.Stats().ByModel["unknown"].Calls; got != 3 {
		t.Fatalf("unknown model calls=%d, want 3", got)
	}
}

func TestTracker_NilIsNoop(t *testing.T) {
	var tracker *Tracker
	tracker.Track(Event{Operation: "plan_campaign"})
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Track(Event{Operation: "generate_image", InputTokens: 1})
		}()
	}
	wg.Wait()
	if got := tracker.Stats().Total.Input; got != 20 {
		t.Fatalf("input=%d, want 20", got)
	}
}

func TestTracker_ContextHelpers(t *testing.T) {
	tracker := NewTracker()

	ctx := NewContext(context.Background(), tracker)
	if got := FromContext(ctx); got != tracker {
		t.Fatalf("FromContext mismatch")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("FromContext on empty context = %v, want nil", got)
	}
}
