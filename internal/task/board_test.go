package task

import (
	"errors"
	"testing"
)

func newTestBoard() *Board {
	return NewBoard([]Category{
		{ID: "national", Name: "National"},
		{ID: "sports", Name: "Sports"},
	})
}

func TestNewBoardStartsPending(t *testing.T) {
	b := newTestBoard()
	snap := b.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(snap))
	}
	if snap[0].ID != "national" || snap[1].ID != "sports" {
		t.Fatalf("snapshot order wrong: %v", snap)
	}
	for _, tk := range snap {
		if tk.Status != StatusPending {
			t.Fatalf("task %s expected pending, got %s", tk.ID, tk.Status)
		}
	}
}

func TestStatusProgressionAndComplete(t *testing.T) {
	b := newTestBoard()
	for _, s := range []Status{StatusGathering, StatusGathered, StatusProcessing, StatusComposing, StatusUploading, StatusSendingWebhook} {
		if err := b.SetStatus("national", s); err != nil {
			t.Fatalf("set %s: %v", s, err)
		}
	}
	if err := b.Complete("national", Result{Headline: "h", ImageURL: "u"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, ok := b.Get("national")
	if !ok || got.Status != StatusDone {
		t.Fatalf("expected done, got %+v", got)
	}
	if got.Result == nil || got.Result.Headline != "h" {
		t.Fatalf("result not recorded: %+v", got.Result)
	}
	if b.CompletedCount() != 1 {
		t.Fatalf("completed count = %d", b.CompletedCount())
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	b := newTestBoard()
	if err := b.Fail("sports", "no new articles"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := b.SetStatus("sports", StatusProcessing); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	if err := b.Complete("sports", Result{}); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState on complete, got %v", err)
	}
	got, _ := b.Get("sports")
	if got.Status != StatusError || got.Error != "no new articles" {
		t.Fatalf("error state mutated: %+v", got)
	}

	if err := b.Complete("national", Result{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := b.Fail("national", "late failure"); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState after done, got %v", err)
	}
}

func TestUnknownTask(t *testing.T) {
	b := newTestBoard()
	if err := b.SetStatus("nope", StatusGathering); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestAllTerminal(t *testing.T) {
	b := newTestBoard()
	if b.AllTerminal() {
		t.Fatalf("fresh board must not be terminal")
	}
	_ = b.Complete("national", Result{})
	_ = b.Fail("sports", "x")
	if !b.AllTerminal() {
		t.Fatalf("expected all terminal")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	b := newTestBoard()
	_ = b.Complete("national", Result{Headline: "h"})
	snap := b.Snapshot()
	snap[0].Result.Headline = "mutated"
	got, _ := b.Get("national")
	if got.Result.Headline != "h" {
		t.Fatalf("snapshot mutation leaked into board")
	}
}
