package clipper

import (
	"errors"
	"testing"
	"time"
)

func TestHandoffFIFO(t *testing.T) {
	h := newHandoff()
	for _, key := range []string{"a", "b", "c"} {
		if err := h.push(Job{Key: key}); err != nil {
			t.Fatalf("push(%s) error = %v", key, err)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		job, ok := h.pop()
		if !ok {
			t.Fatal("pop() returned closed")
		}
		if job.Key != want {
			t.Errorf("pop() = %s, want %s", job.Key, want)
		}
	}
}

func TestHandoffPopBlocksUntilPush(t *testing.T) {
	h := newHandoff()
	got := make(chan string)

	go func() {
		job, _ := h.pop()
		got <- job.Key
	}()

	select {
	case key := <-got:
		t.Fatalf("pop() returned %q before any push", key)
	case <-time.After(20 * time.Millisecond):
	}

	if err := h.push(Job{Key: "late"}); err != nil {
		t.Fatal(err)
	}

	select {
	case key := <-got:
		if key != "late" {
			t.Errorf("pop() = %q, want late", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop() did not wake up after push")
	}
}

func TestHandoffCloseDrainsThenStops(t *testing.T) {
	h := newHandoff()
	_ = h.push(Job{Key: "queued"})
	h.close()

	if err := h.push(Job{Key: "rejected"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("push after close error = %v, want ErrQueueClosed", err)
	}

	job, ok := h.pop()
	if !ok || job.Key != "queued" {
		t.Errorf("pop() = %q, %v; want queued, true", job.Key, ok)
	}

	if _, ok := h.pop(); ok {
		t.Error("pop() on closed, drained handoff should report false")
	}
}

func TestHandoffCloseWakesWaitingConsumer(t *testing.T) {
	h := newHandoff()
	done := make(chan bool)

	go func() {
		_, ok := h.pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	h.close()

	select {
	case ok := <-done:
		if ok {
			t.Error("pop() should report closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("close did not wake the consumer")
	}
}
