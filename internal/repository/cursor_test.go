package repository

import (
	"errors"
	"testing"
	"time"
)

func TestCursor_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	encoded := encodeCursor(&PaginationCursor{ID: "01HZX", CreatedAt: created})

	decoded, err := decodeCursor(encoded)
	if err != nil {
		t.Fatalf("decodeCursor: %v", err)
	}
	if decoded.ID != "01HZX" || !decoded.CreatedAt.Equal(created) {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestParseCursor(t *testing.T) {
	c, err := parseCursor("")
	if err != nil || c != nil {
		t.Fatalf("empty cursor = %v, %v; want nil, nil", c, err)
	}

	for _, bad := range []string{"!!!", "bm90LWpzb24=", "e30="} {
		if _, err := parseCursor(bad); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("parseCursor(%q) err = %v, want ErrInvalidCursor", bad, err)
		}
	}
}

func TestPage(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	type item struct {
		id string
		at time.Time
	}
	items := []item{
		{"c", base.Add(3 * time.Hour)},
		{"b", base.Add(2 * time.Hour)},
		{"a", base.Add(time.Hour)},
	}
	key := func(i item) PaginationCursor { return PaginationCursor{ID: i.id, CreatedAt: i.at} }

	kept, next := page(items, 2, key)
	if len(kept) != 2 {
		t.Fatalf("kept %d items, want 2", len(kept))
	}
	if next == "" {
		t.Fatal("expected next cursor")
	}
	cur, err := decodeCursor(next)
	if err != nil {
		t.Fatalf("decode next: %v", err)
	}
	if cur.ID != "b" {
		t.Errorf("next cursor id = %s, want b", cur.ID)
	}

	kept, next = page(items, 5, key)
	if len(kept) != 3 || next != "" {
		t.Errorf("page(limit 5) = %d items, cursor %q; want 3, empty", len(kept), next)
	}
}
