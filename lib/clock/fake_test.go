// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNow(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Errorf("Now() = %v, want %v", c.Now(), epoch)
	}
	// Time does not move on its own.
	if !c.Now().Equal(epoch) {
		t.Error("fake clock advanced without Advance")
	}
}

func TestFakeAdvance(t *testing.T) {
	c := Fake(epoch)
	got := c.Advance(90 * time.Minute)
	want := epoch.Add(90 * time.Minute)
	if !got.Equal(want) || !c.Now().Equal(want) {
		t.Errorf("after Advance: %v / %v, want %v", got, c.Now(), want)
	}
}

func TestFakeAdvanceNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Advance(-1) did not panic")
		}
	}()
	Fake(epoch).Advance(-time.Second)
}

func TestFakeSet(t *testing.T) {
	c := Fake(epoch)
	earlier := epoch.Add(-24 * time.Hour)
	c.Set(earlier)
	if !c.Now().Equal(earlier) {
		t.Errorf("Now() after Set = %v, want %v", c.Now(), earlier)
	}
}

func TestFakeConcurrentAdvance(t *testing.T) {
	c := Fake(epoch)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	wg.Wait()
	if want := epoch.Add(50 * time.Second); !c.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", c.Now(), want)
	}
}

func TestRealNow(t *testing.T) {
	before := time.Now()
	got := Real().Now()
	if got.Before(before) {
		t.Errorf("Real().Now() = %v, before %v", got, before)
	}
}
