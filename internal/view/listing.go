package view

import (
	"fmt"
	"strconv"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
)

const (
	DescriptionFallback = "No description available."
	EmptyTitle          = "No products found"
	EmptyHint           = "Add your first product to get started"
)

// Card is one rendered product. Edit and Delete are bound to the card's own
// id so a surface never has to look the record up again.
type Card struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	PriceLabel   string `json:"price_label"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	EditAction   Action `json:"edit"`
	DeleteAction Action `json:"delete"`
}

// Action names a per-record operation and its target.
type Action struct {
	Kind     string `json:"kind"`
	TargetID int64  `json:"target_id"`
}

func (a Action) Target() string { return strconv.FormatInt(a.TargetID, 10) }

type EmptyState struct {
	Title string `json:"title"`
	Hint  string `json:"hint"`
}

type Listing struct {
	Cards      []Card      `json:"cards"`
	Empty      *EmptyState `json:"empty,omitempty"`
	Query      Query       `json:"query"`
	Categories []string    `json:"categories"`
	Total      int         `json:"total"`
}

func PriceLabel(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

func NewCard(p domain.Product) Card {
	desc := p.Description
	if desc == "" {
		desc = DescriptionFallback
	}
	return Card{
		ID:           p.ID,
		Title:        p.Title,
		PriceLabel:   PriceLabel(p.Price),
		Category:     p.Category,
		Description:  desc,
		Image:        p.Image,
		EditAction:   Action{Kind: "edit", TargetID: p.ID},
		DeleteAction: Action{Kind: "delete", TargetID: p.ID},
	}
}

// Build renders the full catalog under q. Categories are taken from the
// whole catalog, not the filtered subset, so the filter menu stays stable.
func (p *Pipeline) Build(products []domain.Product, q Query) Listing {
	matched := p.Apply(products, q)
	listing := Listing{
		Cards:      make([]Card, 0, len(matched)),
		Query:      q,
		Categories: p.Categories(products),
		Total:      len(products),
	}
	for _, product := range matched {
		listing.Cards = append(listing.Cards, NewCard(product))
	}
	if len(listing.Cards) == 0 {
		listing.Empty = &EmptyState{Title: EmptyTitle, Hint: EmptyHint}
	}
	return listing
}
