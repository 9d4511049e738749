package cooldown

import (
	"math"
	"testing"
	"time"
)

func TestRemaining(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)

	old := uint64(now.Unix() - 90000)
	if got := Remaining(&old, now); got != 0 {
		t.Fatalf("expired cooldown should be zero, got %d", got)
	}
	if !Ready(&old, now) {
		t.Fatalf("expired cooldown should allow submission")
	}

	recent := uint64(now.Unix() - 10)
	if got := Remaining(&recent, now); got != 86390 {
		t.Fatalf("remaining mismatch: %d", got)
	}
	if Ready(&recent, now) {
		t.Fatalf("active cooldown should reject submission")
	}

	if got := Remaining(nil, now); got != 0 {
		t.Fatalf("absent timestamp should be zero, got %d", got)
	}

	boundary := uint64(now.Unix()) - Seconds
	if !Ready(&boundary, now) {
		t.Fatalf("cooldown should end exactly at last+period")
	}
}

func TestRemainingFarFutureTimestamp(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)

	future := uint64(now.Unix() + 60)
	if got := Remaining(&future, now); got != Seconds+60 {
		t.Fatalf("future timestamp mismatch: %d", got)
	}

	huge := uint64(math.MaxUint64 - 5)
	if got := Remaining(&huge, now); got != math.MaxUint64 {
		t.Fatalf("huge timestamp should saturate, got %d", got)
	}
	if Ready(&huge, now) {
		t.Fatalf("huge timestamp must not read as an expired cooldown")
	}
}

func TestFormat(t *testing.T) {
	cases := map[uint64]string{
		0:     "0s",
		59:    "59s",
		60:    "1m 0s",
		3599:  "59m 59s",
		3600:  "1h 0m 0s",
		86390: "23h 59m 50s",
	}
	for seconds, want := range cases {
		if got := Format(seconds); got != want {
			t.Fatalf("format %d: %q != %q", seconds, got, want)
		}
	}
}

func TestClockResetKeyedOnTimestamp(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	clock := NewClock(time.Hour, func() time.Time { return now })
	defer clock.Stop()

	if clock.C() != nil {
		t.Fatalf("stopped clock should have no channel")
	}
	if !clock.Reset(nil) {
		t.Fatalf("first reset should start the clock")
	}
	if clock.Remaining() != 0 {
		t.Fatalf("no timestamp should mean no wait")
	}

	last := uint64(now.Unix() - 10)
	if !clock.Reset(&last) {
		t.Fatalf("changed timestamp should restart the clock")
	}
	if clock.Remaining() != 86390 {
		t.Fatalf("remaining mismatch: %d", clock.Remaining())
	}

	same := last
	if clock.Reset(&same) {
		t.Fatalf("same timestamp should not restart the clock")
	}

	now = now.Add(5 * time.Second)
	if got := clock.Tick(); got != 86385 {
		t.Fatalf("tick mismatch: %d", got)
	}

	clock.Stop()
	if clock.C() != nil {
		t.Fatalf("stop should clear the channel")
	}
	if !clock.Reset(&last) {
		t.Fatalf("reset after stop should restart")
	}
}

func TestClockTicks(t *testing.T) {
	clock := NewClock(5*time.Millisecond, nil)
	clock.Reset(nil)
	defer clock.Stop()

	select {
	case <-clock.C():
	case <-time.After(time.Second):
		t.Fatalf("clock did not tick")
	}
}
