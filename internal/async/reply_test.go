package async

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReplyResolvesOnce(t *testing.T) {
	r := NewReply[int]()
	if !r.Resolve(1) {
		t.Fatalf("first Resolve should succeed")
	}
	if r.Resolve(2) {
		t.Fatalf("second Resolve should be discarded")
	}
	got, err := Await(context.Background(), r.C())
	if err != nil || got != 1 {
		t.Fatalf("Await() = %d, %v", got, err)
	}
}

func TestReplyCancelDiscardsLateAnswer(t *testing.T) {
	r := NewReply[string]()
	r.Cancel()
	if r.Resolve("late") {
		t.Fatalf("Resolve after Cancel should be discarded")
	}
	if _, err := Await(context.Background(), r.C()); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestAwaitHonoursContext(t *testing.T) {
	r := NewReply[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := Await(ctx, r.C()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestSlotReplacesOutstandingRequest(t *testing.T) {
	var s Slot[int]
	first := s.Begin()
	second := s.Begin()
	if first.Pending() {
		t.Fatalf("first reply should have been cancelled")
	}
	if !s.Resolve(5) {
		t.Fatalf("Resolve should reach the current reply")
	}
	if s.Resolve(6) {
		t.Fatalf("a second answer must be dropped")
	}
	got, err := Await(context.Background(), second.C())
	if err != nil || got != 5 {
		t.Fatalf("Await() = %d, %v", got, err)
	}
}

func TestSlotCancel(t *testing.T) {
	var s Slot[int]
	r := s.Begin()
	s.Cancel()
	if s.Pending() || r.Pending() {
		t.Fatalf("expected no pending reply after Cancel")
	}
	if s.Resolve(1) {
		t.Fatalf("Resolve after Cancel must be dropped")
	}
}
