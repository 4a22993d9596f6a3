package store

import (
	"context"
	"testing"
	"time"
)

func TestListRecentOrder(t *testing.T) {
	s, clock := testStore(t)
	ctx := context.Background()
	ids := seedCaptures(t, s, clock, 3)

	got, err := s.ListRecentCaptures(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecentCaptures failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if got[i].ID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, got[i].ID)
		}
	}
}

func TestListRecentLimit(t *testing.T) {
	s, clock := testStore(t)
	ctx := context.Background()
	ids := seedCaptures(t, s, clock, 5)

	got, err := s.ListRecentCaptures(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecentCaptures failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != ids[4] || got[1].ID != ids[3] {
		t.Errorf("expected the two newest records, got %q, %q", got[0].ID, got[1].ID)
	}
}

func TestListUpdateReorders(t *testing.T) {
	s, clock := testStore(t)
	ctx := context.Background()
	ids := seedCaptures(t, s, clock, 3)

	// Touching the oldest record moves it to the front.
	clock.Advance(time.Minute)
	if _, err := s.UpdateCapture(ctx, ids[0], Changes{Response: String("late answer")}); err != nil {
		t.Fatalf("UpdateCapture failed: %v", err)
	}

	got, err := s.ListRecentCaptures(ctx, 1)
	if err != nil {
		t.Fatalf("ListRecentCaptures failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != ids[0] {
		t.Errorf("expected updated record first, got %v", got)
	}
}

func TestListJoinsThumbnails(t *testing.T) {
	s, clock := testStore(t)
	ctx := context.Background()

	withThumb, err := s.UpsertCapture(ctx, Changes{ThumbnailDataURL: String("data:image/jpeg;base64,BBBB")})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := s.UpsertCapture(ctx, Changes{}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := s.ListRecentCaptures(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecentCaptures failed: %v", err)
	}
	if got[0].ThumbnailDataURL != "" {
		t.Errorf("record without thumbnail got one: %q", got[0].ThumbnailDataURL)
	}
	if got[1].ID != withThumb.ID || got[1].ThumbnailDataURL != "data:image/jpeg;base64,BBBB" {
		t.Errorf("thumbnail not joined: %+v", got[1])
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	s, _ := testStore(t)

	got, err := s.GetCapture(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetCapture failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestClearAll(t *testing.T) {
	s, clock := testStore(t)
	ctx := context.Background()
	ids := seedCaptures(t, s, clock, 3)
	if _, err := s.SaveBlob(ctx, ids[0], "video", []byte("x")); err != nil {
		t.Fatalf("SaveBlob failed: %v", err)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	got, err := s.ListRecentCaptures(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecentCaptures failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty store, got %d records", len(got))
	}
	blob, err := s.GetBlob(ctx, ids[0], "video")
	if err != nil {
		t.Fatalf("GetBlob failed: %v", err)
	}
	if blob != nil {
		t.Error("blob survived clear")
	}
}
