package view

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
)

// Pipeline derives displayed subsets of the catalog. It never mutates its
// input or touches storage.
type Pipeline struct {
	// collate.Collator keeps internal buffers and is not safe for
	// concurrent use.
	mu       sync.Mutex
	collator *collate.Collator
	locale   language.Tag
}

// NewPipeline builds a pipeline whose name order follows locale. An
// unparseable locale falls back to English.
func NewPipeline(locale string) *Pipeline {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	return &Pipeline{
		collator: collate.New(tag),
		locale:   tag,
	}
}

func (p *Pipeline) Locale() string { return p.locale.String() }

// Apply returns the products matching q in the order q asks for. The search
// term is matched as typed, spaces included; only "" passes everything. The
// result is a fresh slice; equal elements keep their relative catalog order.
func (p *Pipeline) Apply(products []domain.Product, q Query) []domain.Product {
	term := strings.ToLower(q.Search)
	out := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if term != "" && !matchesSearch(product, term) {
			continue
		}
		if q.Category != "" && product.Category != q.Category {
			continue
		}
		out = append(out, product)
	}

	switch q.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortName:
		p.mu.Lock()
		sort.SliceStable(out, func(i, j int) bool {
			return p.collator.CompareString(out[i].Title, out[j].Title) < 0
		})
		p.mu.Unlock()
	}
	return out
}

// Categories returns the distinct categories present in products, in name
// order.
func (p *Pipeline) Categories(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0)
	for _, product := range products {
		if product.Category == "" {
			continue
		}
		if _, ok := seen[product.Category]; ok {
			continue
		}
		seen[product.Category] = struct{}{}
		out = append(out, product.Category)
	}
	p.mu.Lock()
	p.collator.SortStrings(out)
	p.mu.Unlock()
	return out
}

func matchesSearch(product domain.Product, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(product.Title), lowerTerm) ||
		strings.Contains(strings.ToLower(product.Description), lowerTerm)
}

var defaultPipeline = NewPipeline("en")

// Apply runs q against products using English name order.
func Apply(products []domain.Product, q Query) []domain.Product {
	return defaultPipeline.Apply(products, q)
}
