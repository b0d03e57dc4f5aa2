// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockSleepAdvancesTime(t *testing.T) {
	clock := Fake(epoch)
	for range 3 {
		clock.Sleep(100 * time.Millisecond)
	}
	if got := clock.Slept(); got != 300*time.Millisecond {
		t.Errorf("Slept() = %v, want 300ms", got)
	}
	if got := clock.Now(); !got.Equal(epoch.Add(300 * time.Millisecond)) {
		t.Errorf("Now() = %v, want epoch+300ms", got)
	}

	clock.Sleep(0)
	clock.Sleep(-time.Second)
	if got := clock.Slept(); got != 300*time.Millisecond {
		t.Errorf("Slept() after non-positive sleeps = %v, want 300ms", got)
	}
}

func TestFakeClockAfterFuncFiresDuringSleep(t *testing.T) {
	clock := Fake(epoch)
	fired := 0
	clock.AfterFunc(500*time.Millisecond, func() { fired++ })

	clock.Sleep(400 * time.Millisecond)
	if fired != 0 {
		t.Fatal("AfterFunc fired before its deadline")
	}
	clock.Sleep(100 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	clock.Advance(time.Hour)
	if fired != 1 {
		t.Fatalf("fired = %d after further advance, want 1", fired)
	}
}

func TestFakeClockAfterFuncStop(t *testing.T) {
	clock := Fake(epoch)
	fired := false
	timer := clock.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop() = false on an armed timer")
	}
	if timer.Stop() {
		t.Fatal("second Stop() = true")
	}
	clock.Advance(2 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
	if clock.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", clock.PendingCount())
	}
}

func TestFakeClockAfterFuncZeroDuration(t *testing.T) {
	clock := Fake(epoch)
	fired := false
	clock.AfterFunc(0, func() { fired = true })
	if !fired {
		t.Fatal("AfterFunc(0) should run before returning")
	}
}

func TestFakeClockAfterFuncOrdering(t *testing.T) {
	clock := Fake(epoch)
	var order []int
	clock.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	clock.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	clock.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	clock.Advance(5 * time.Second)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("order = %v, want [1 2 3]", order)
	}
}

func TestFakeClockTicker(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	select {
	case <-ticker.C:
		t.Fatal("ticker fired before any advance")
	default:
	}

	clock.Advance(time.Second)
	select {
	case tick := <-ticker.C:
		if !tick.Equal(epoch.Add(time.Second)) {
			t.Errorf("tick = %v, want epoch+1s", tick)
		}
	default:
		t.Fatal("ticker did not fire after one interval")
	}

	// Three intervals at once: the channel holds one tick, the rest drop.
	clock.Advance(3 * time.Second)
	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("ticker queued more than one tick")
	default:
	}

	ticker.Stop()
	clock.Advance(time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeClockNewTickerPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewTicker(0) did not panic")
		}
	}()
	Fake(epoch).NewTicker(0)
}
