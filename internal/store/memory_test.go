package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/triads/internal/bubbles"
	"github.com/robalobadob/triads/internal/play"
)

func newTable(id string) *play.Table {
	return play.New(play.Options{ID: id, Bounds: bubbles.Bounds{Width: 400, Height: 400}})
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	tb := newTable(NewID())
	if err := m.Save(ctx, tb); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := m.Get(ctx, tb.ID())
	if err != nil || got != tb {
		t.Fatalf("expected saved table, got %v %v", got, err)
	}
	if err := m.Delete(ctx, tb.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !tb.Closed() {
		t.Fatalf("expected deleted table closed")
	}
	if _, err := m.Get(ctx, tb.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Delete(ctx, tb.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSweepDropsIdleTables(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	old, fresh := newTable("old"), newTable("fresh")
	m.Save(ctx, old)
	now = now.Add(time.Hour)
	m.Save(ctx, fresh)

	if n := m.Sweep(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 swept table, got %d", n)
	}
	if !old.Closed() || fresh.Closed() {
		t.Fatalf("expected only the idle table closed")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 table left, got %d", m.Len())
	}
}

func TestSaveReplacesAndClosesOld(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	a, b := newTable("same"), newTable("same")
	m.Save(ctx, a)
	m.Save(ctx, b)
	if !a.Closed() || b.Closed() {
		t.Fatalf("expected replaced table closed")
	}
}
