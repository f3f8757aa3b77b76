package sched

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestScheduleReplaces(t *testing.T) {
	var got []string
	now := time.Unix(1000, 0)
	ts := New()

	ts.After(Tap, now, 300*time.Millisecond, func(time.Time) { got = append(got, "first") })
	ts.After(Tap, now, 100*time.Millisecond, func(time.Time) { got = append(got, "second") })

	if n := ts.Fire(now.Add(50 * time.Millisecond)); n != 0 {
		t.Fatalf("fired %d timers too early", n)
	}
	if n := ts.Fire(now.Add(400 * time.Millisecond)); n != 1 {
		t.Fatalf("fired %d timers, want 1", n)
	}
	if diff := cmp.Diff([]string{"second"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if ts.Pending(Tap) {
		t.Error("timer still pending after firing")
	}
}

func TestFireOrderAndCancel(t *testing.T) {
	var got []Kind
	now := time.Unix(1000, 0)
	ts := New()
	record := func(k Kind) func(time.Time) {
		return func(time.Time) { got = append(got, k) }
	}

	ts.After(HighFidelity, now, 30*time.Millisecond, record(HighFidelity))
	ts.After(Resize, now, 10*time.Millisecond, record(Resize))
	ts.After(LinkFade, now, 20*time.Millisecond, func(time.Time) {
		got = append(got, LinkFade)
		ts.Cancel(HighFidelity)
	})

	ts.Fire(now.Add(time.Second))
	if diff := cmp.Diff([]Kind{Resize, LinkFade}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRescheduleFromCallbackWaits(t *testing.T) {
	now := time.Unix(1000, 0)
	ts := New()
	count := 0
	var fn func(time.Time)
	fn = func(at time.Time) {
		count++
		ts.Schedule(Tap, at, fn)
	}
	ts.Schedule(Tap, now, fn)
	ts.Fire(now)
	if count != 1 {
		t.Fatalf("callback ran %d times in one Fire", count)
	}
	if !ts.Pending(Tap) {
		t.Fatal("rescheduled timer lost")
	}
}

func TestFlushRunsOnlyOverdueKind(t *testing.T) {
	var got []Kind
	now := time.Unix(1000, 0)
	ts := New()
	record := func(k Kind) func(time.Time) {
		return func(time.Time) { got = append(got, k) }
	}

	ts.After(Tap, now, 300*time.Millisecond, record(Tap))
	ts.After(Resize, now, 100*time.Millisecond, record(Resize))

	if ts.Flush(Tap, now.Add(200*time.Millisecond)) {
		t.Fatal("flushed timer before its deadline")
	}
	if !ts.Flush(Tap, now.Add(350*time.Millisecond)) {
		t.Fatal("overdue timer not flushed")
	}
	if ts.Flush(Tap, now.Add(400*time.Millisecond)) {
		t.Error("flushed timer twice")
	}
	if diff := cmp.Diff([]Kind{Tap}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if !ts.Pending(Resize) {
		t.Error("flush touched other kind")
	}
}
