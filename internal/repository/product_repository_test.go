package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
)

func TestProductRepositoryLoadMissingSlotIsEmpty(t *testing.T) {
	repo := NewProductRepository(NewMemorySlot(), "")
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", got)
	}
	if repo.Key() != DefaultStorageKey {
		t.Fatalf("expected default key, got %q", repo.Key())
	}
}

func TestProductRepositorySaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	repo := NewProductRepository(slot, "products")

	in := domain.Collection{
		{ID: 1700000000000, Title: "Lamp", Price: 19.5, Image: "https://x/l.png", Category: "home", Description: "Warm light"},
		{ID: 1700000000001, Title: "Mug", Price: 0, Image: "https://x/m.png", Category: "kitchen"},
	}
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _, _ := slot.Get(ctx, "products")

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	// save(load()) leaves the stored bytes unchanged.
	if err := repo.Save(ctx, out); err != nil {
		t.Fatalf("resave: %v", err)
	}
	again, _, _ := slot.Get(ctx, "products")
	if string(again) != string(raw) {
		t.Fatalf("resave changed slot:\n%s\n%s", raw, again)
	}
}

func TestProductRepositorySaveNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	repo := NewProductRepository(slot, "products")
	if err := repo.Save(ctx, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, ok, _ := slot.Get(ctx, "products")
	if !ok || string(raw) != "[]" {
		t.Fatalf("expected [] in slot, got %q ok=%v", raw, ok)
	}
}

func TestProductRepositoryCorruptValueLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"not json", `{"id":1}`, "null"} {
		slot := NewMemorySlot()
		_ = slot.Put(ctx, "products", []byte(raw))
		repo := NewProductRepository(slot, "products")
		got, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("load %q: %v", raw, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty collection for %q, got %#v", raw, got)
		}
	}
}

func TestProductRepositoryClearRemovesSlot(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	repo := NewProductRepository(slot, "products")
	_ = repo.Save(ctx, domain.Collection{{ID: 1, Title: "A"}})
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := slot.Get(ctx, "products"); ok {
		t.Fatal("expected slot to be removed")
	}
	got, err := repo.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty after clear, got %v err=%v", got, err)
	}
}

type failingSlot struct{ MemorySlot }

var errSlotDown = errors.New("slot down")

func (*failingSlot) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errSlotDown }
func (*failingSlot) Put(context.Context, string, []byte) error         { return errSlotDown }
func (*failingSlot) Delete(context.Context, string) error              { return errSlotDown }

func TestProductRepositoryPropagatesSlotErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(&failingSlot{}, "products")
	if _, err := repo.Load(ctx); !errors.Is(err, errSlotDown) {
		t.Fatalf("expected load error, got %v", err)
	}
	if err := repo.Save(ctx, domain.Collection{}); !errors.Is(err, errSlotDown) {
		t.Fatalf("expected save error, got %v", err)
	}
	if err := repo.Clear(ctx); !errors.Is(err, errSlotDown) {
		t.Fatalf("expected clear error, got %v", err)
	}
}

func TestProductRepositoryAcrossBackends(t *testing.T) {
	ctx := context.Background()
	for name, slot := range localSlotsForTest(t) {
		t.Run(name, func(t *testing.T) {
			repo := NewProductRepository(slot, "products")
			want := domain.Collection{{ID: 42, Title: "Desk", Price: 120, Image: "i", Category: "office"}}
			if err := repo.Save(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := repo.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got) != 1 || got[0] != want[0] {
				t.Fatalf("unexpected catalog %+v", got)
			}
		})
	}
}
