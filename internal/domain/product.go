package domain

// Product is a single catalog record. The JSON shape is the persisted layout
// of one element of the stored collection.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
}

// Collection is the full ordered catalog, persisted as one unit.
// Order is insertion order; new products are appended.
type Collection []Product

// IndexOf returns the position of the product with id, or -1.
func (c Collection) IndexOf(id int64) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns a copy of the product with id.
func (c Collection) Find(id int64) (Product, bool) {
	idx := c.IndexOf(id)
	if idx < 0 {
		return Product{}, false
	}
	return c[idx], true
}

// Clone returns a copy that shares no backing array with c.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// MaxID returns the largest id in the collection, or 0 when empty.
func (c Collection) MaxID() int64 {
	var max int64
	for i := range c {
		if c[i].ID > max {
			max = c[i].ID
		}
	}
	return max
}
