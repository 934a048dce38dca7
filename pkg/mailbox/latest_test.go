package mailbox

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLatest_EmptyByDefault(t *testing.T) {
	var l Latest[int]

	if _, _, ok := l.Load(); ok {
		t.Error("zero-value mailbox should be empty")
	}
	if _, ok := l.LoadFresh(time.Second); ok {
		t.Error("LoadFresh on empty mailbox should report absent")
	}
	if l.Version() != 0 {
		t.Errorf("Version = %d, want 0", l.Version())
	}
}

func TestLatest_OverwriteKeepsNewest(t *testing.T) {
	l := New[string]()

	l.Publish("a")
	l.Publish("b")
	l.Publish("c")

	v, _, ok := l.Load()
	if !ok || v != "c" {
		t.Errorf("Load = %q,%v; want c,true", v, ok)
	}
	// Reading does not consume.
	if v, _, _ := l.Load(); v != "c" {
		t.Errorf("second Load = %q, want c", v)
	}
	if l.Version() != 3 {
		t.Errorf("Version = %d, want 3", l.Version())
	}
}

func TestLatest_Clear(t *testing.T) {
	l := New[int]()
	l.Publish(5)
	l.Clear()

	if _, _, ok := l.Load(); ok {
		t.Error("cleared mailbox should report absent")
	}
	if l.Version() != 2 {
		t.Errorf("Version = %d, want 2", l.Version())
	}
}

func TestLatest_LoadFresh(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	l := New[int](WithClock[int](clk.Now))

	l.Publish(1)

	clk.Advance(200 * time.Millisecond)
	if v, ok := l.LoadFresh(500 * time.Millisecond); !ok || v != 1 {
		t.Errorf("value 200ms old should be fresh, got %v,%v", v, ok)
	}

	clk.Advance(400 * time.Millisecond)
	if _, ok := l.LoadFresh(500 * time.Millisecond); ok {
		t.Error("value 600ms old should be stale at 500ms max age")
	}
	if v, ok := l.LoadFresh(0); !ok || v != 1 {
		t.Error("maxAge 0 should disable staleness")
	}
}

func TestLatest_ConcurrentPublishLoad(t *testing.T) {
	l := New[int]()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 1; i <= 10000; i++ {
			l.Publish(i)
		}
	}()

	go func() {
		defer wg.Done()
		last := 0
		for i := 0; i < 10000; i++ {
			v, _, ok := l.Load()
			if !ok {
				continue
			}
			if v < last {
				t.Errorf("value went backwards: %d after %d", v, last)
				return
			}
			last = v
		}
	}()

	wg.Wait()

	if v, _, _ := l.Load(); v != 10000 {
		t.Errorf("final value = %d, want 10000", v)
	}
}
