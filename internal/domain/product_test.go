package domain

import "testing"

func TestCollectionLookupHelpers(t *testing.T) {
	c := Collection{
		{ID: 10, Title: "Mug", Price: 9.99, Category: "Home"},
		{ID: 42, Title: "Pen", Price: 1.5, Category: "Office"},
	}

	if idx := c.IndexOf(42); idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if idx := c.IndexOf(7); idx != -1 {
		t.Fatalf("expected -1 for missing id, got %d", idx)
	}
	p, ok := c.Find(10)
	if !ok || p.Title != "Mug" {
		t.Fatalf("unexpected find result: %+v ok=%v", p, ok)
	}
	if _, ok := c.Find(99); ok {
		t.Fatal("expected miss for unknown id")
	}
	if c.MaxID() != 42 {
		t.Fatalf("expected max id 42, got %d", c.MaxID())
	}
	if (Collection{}).MaxID() != 0 {
		t.Fatal("expected max id 0 for empty collection")
	}
}

func TestCollectionCloneIsIndependent(t *testing.T) {
	c := Collection{{ID: 1, Title: "A"}}
	cp := c.Clone()
	cp[0].Title = "B"
	if c[0].Title != "A" {
		t.Fatalf("clone shares storage with source: %+v", c)
	}
}
