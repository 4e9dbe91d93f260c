package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/observability"
	"github.com/sandeepkv93/catalog-editor/internal/repository"
	"github.com/sandeepkv93/catalog-editor/internal/view"
)

var (
	ErrProductValidation      = errors.New("invalid product")
	ErrProductInvalidTitle    = fmt.Errorf("%w: title is required", ErrProductValidation)
	ErrProductInvalidPrice    = fmt.Errorf("%w: price must be a non-negative number", ErrProductValidation)
	ErrProductInvalidImage    = fmt.Errorf("%w: image is required", ErrProductValidation)
	ErrProductInvalidCategory = fmt.Errorf("%w: category is required", ErrProductValidation)
)

// ProductInput carries the editable fields of a product. Strings are trimmed
// before validation.
type ProductInput struct {
	Title       string  `json:"title" yaml:"title"`
	Price       float64 `json:"price" yaml:"price"`
	Image       string  `json:"image" yaml:"image"`
	Category    string  `json:"category" yaml:"category"`
	Description string  `json:"description" yaml:"description"`
}

func InputFromProduct(p domain.Product) ProductInput {
	return ProductInput{
		Title:       p.Title,
		Price:       p.Price,
		Image:       p.Image,
		Category:    p.Category,
		Description: p.Description,
	}
}

// Validate returns the first failing rule, in form field order.
func (in ProductInput) Validate() error {
	_, err := in.normalize()
	return err
}

func (in ProductInput) normalize() (domain.Product, error) {
	p := domain.Product{
		Title:       strings.TrimSpace(in.Title),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
	}
	switch {
	case p.Title == "":
		return domain.Product{}, ErrProductInvalidTitle
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0:
		return domain.Product{}, ErrProductInvalidPrice
	case p.Image == "":
		return domain.Product{}, ErrProductInvalidImage
	case p.Category == "":
		return domain.Product{}, ErrProductInvalidCategory
	}
	return p, nil
}

type ImportReport struct {
	Imported int  `json:"imported"`
	Total    int  `json:"total"`
	Replaced bool `json:"replaced"`
}

// CatalogService applies mutations as load, modify, save over the whole
// catalog. Mutations are serialized so concurrent requests in one process
// never lose each other's writes.
type CatalogService struct {
	repo     repository.ProductRepository
	pipeline *view.Pipeline
	now      func() time.Time
	mu       sync.Mutex
}

func NewCatalogService(repo repository.ProductRepository, pipeline *view.Pipeline) *CatalogService {
	if pipeline == nil {
		pipeline = view.NewPipeline("en")
	}
	return &CatalogService{repo: repo, pipeline: pipeline, now: time.Now}
}

// WithClock replaces the id clock. Used by tests and the load generator.
func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	s.now = now
	return s
}

func (s *CatalogService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "create", outcome, time.Since(start)) }()
	ctx, span := observability.StartSpan(ctx, observability.TracerService, "catalog.create")
	defer func() { observability.EndSpan(span, outcome) }()

	product, err := input.normalize()
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	products, err := s.repo.Load(ctx)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	product.ID = allocateID(products, s.now())
	products = append(products, product)
	if err := s.repo.Save(ctx, products); err != nil {
		outcome = "error"
		return nil, err
	}
	span.SetAttributes(attribute.Int64("catalog.product_id", product.ID))
	return &product, nil
}

// Update replaces every field except the id. A missing id leaves the catalog
// untouched and reports ErrProductNotFound.
func (s *CatalogService) Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "update", outcome, time.Since(start)) }()
	ctx, span := observability.StartSpan(ctx, observability.TracerService, "catalog.update",
		attribute.Int64("catalog.product_id", id))
	defer func() { observability.EndSpan(span, outcome) }()

	product, err := input.normalize()
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	products, err := s.repo.Load(ctx)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	idx := products.IndexOf(id)
	if idx < 0 {
		outcome = "not_found"
		return nil, repository.ErrProductNotFound
	}
	product.ID = id
	products[idx] = product
	if err := s.repo.Save(ctx, products); err != nil {
		outcome = "error"
		return nil, err
	}
	return &product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "delete", outcome, time.Since(start)) }()
	ctx, span := observability.StartSpan(ctx, observability.TracerService, "catalog.delete",
		attribute.Int64("catalog.product_id", id))
	defer func() { observability.EndSpan(span, outcome) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	products, err := s.repo.Load(ctx)
	if err != nil {
		outcome = "error"
		return err
	}
	idx := products.IndexOf(id)
	if idx < 0 {
		outcome = "not_found"
		return repository.ErrProductNotFound
	}
	remaining := make(domain.Collection, 0, len(products)-1)
	remaining = append(remaining, products[:idx]...)
	remaining = append(remaining, products[idx+1:]...)
	if err := s.repo.Save(ctx, remaining); err != nil {
		outcome = "error"
		return err
	}
	return nil
}

func (s *CatalogService) ClearAll(ctx context.Context) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "clear", outcome, time.Since(start)) }()
	ctx, span := observability.StartSpan(ctx, observability.TracerService, "catalog.clear")
	defer func() { observability.EndSpan(span, outcome) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Clear(ctx); err != nil {
		outcome = "error"
		return err
	}
	return nil
}

// Import validates every item before writing anything. Items keep their id
// unless it is missing or already taken.
func (s *CatalogService) Import(ctx context.Context, items []domain.Product, replace bool) (ImportReport, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "import", outcome, time.Since(start)) }()
	ctx, span := observability.StartSpan(ctx, observability.TracerService, "catalog.import",
		attribute.Int("catalog.import_size", len(items)), attribute.Bool("catalog.import_replace", replace))
	defer func() { observability.EndSpan(span, outcome) }()

	normalized := make(domain.Collection, 0, len(items))
	for i, item := range items {
		p, err := InputFromProduct(item).normalize()
		if err != nil {
			outcome = "bad_request"
			return ImportReport{}, fmt.Errorf("item %d: %w", i+1, err)
		}
		p.ID = item.ID
		normalized = append(normalized, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	products := domain.Collection{}
	if !replace {
		loaded, err := s.repo.Load(ctx)
		if err != nil {
			outcome = "error"
			return ImportReport{}, err
		}
		products = loaded
	}
	for _, p := range normalized {
		if p.ID <= 0 || products.IndexOf(p.ID) >= 0 {
			p.ID = allocateID(products, s.now())
		}
		products = append(products, p)
	}
	if err := s.repo.Save(ctx, products); err != nil {
		outcome = "error"
		return ImportReport{}, err
	}
	return ImportReport{Imported: len(normalized), Total: len(products), Replaced: replace}, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "get", outcome, time.Since(start)) }()

	products, err := s.repo.Load(ctx)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	product, ok := products.Find(id)
	if !ok {
		outcome = "not_found"
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

func (s *CatalogService) All(ctx context.Context) (domain.Collection, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "all", outcome, time.Since(start)) }()

	products, err := s.repo.Load(ctx)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

func (s *CatalogService) List(ctx context.Context, q view.Query) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "list", outcome, time.Since(start)) }()

	products, err := s.repo.Load(ctx)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	out := s.pipeline.Apply(products, q)
	observability.RecordViewQuery(ctx, string(q.Sort), q.Filtered(), len(out))
	return out, nil
}

// Listing renders the catalog under q for display surfaces.
func (s *CatalogService) Listing(ctx context.Context, q view.Query) (view.Listing, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "listing", outcome, time.Since(start)) }()

	products, err := s.repo.Load(ctx)
	if err != nil {
		outcome = "error"
		return view.Listing{}, err
	}
	listing := s.pipeline.Build(products, q)
	observability.RecordViewQuery(ctx, string(q.Sort), q.Filtered(), len(listing.Cards))
	return listing, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	products, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Categories(products), nil
}

// allocateID uses the creation time in milliseconds. When that value is
// already taken it falls back to one past the largest id.
func allocateID(products domain.Collection, now time.Time) int64 {
	id := now.UnixMilli()
	if products.IndexOf(id) >= 0 {
		id = products.MaxID() + 1
	}
	return id
}
