package engine

import (
	"testing"
	"time"

	"tourney/internal/clock"
)

func TestFmtGoStandard(t *testing.T) {
	var tc = clock.NewStandard(40, 60*time.Second, time.Second)
	var got = fmtGoStandard(tc, 0)
	var want = "wtime 60000 btime 60000 winc 1000 binc 1000 movestogo 40"
	if got != want {
		t.Errorf("fmtGoStandard = %q, want %q", got, want)
	}

	var fischer = clock.NewStandard(0, 30*time.Second, 0)
	got = fmtGoStandard(fischer, 10)
	want = "wtime 30000 btime 30000 winc 0 binc 0"
	if got != want {
		t.Errorf("fischer fmtGoStandard = %q, want %q", got, want)
	}
}
