package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/observability"
)

const DefaultStorageKey = "products"

var ErrProductNotFound = errors.New("product not found")

// ProductRepository persists the whole catalog as one JSON array under a
// single slot key. Every mutation is a full load followed by a full save.
type ProductRepository interface {
	Load(ctx context.Context) (domain.Collection, error)
	Save(ctx context.Context, products domain.Collection) error
	Clear(ctx context.Context) error
}

type SlotProductRepository struct {
	slot Slot
	key  string
}

func NewProductRepository(slot Slot, key string) *SlotProductRepository {
	if key == "" {
		key = DefaultStorageKey
	}
	return &SlotProductRepository{slot: slot, key: key}
}

func (r *SlotProductRepository) Key() string { return r.key }

// Load returns the stored catalog. A missing slot is an empty catalog. So is
// an unparseable one: the bad value is logged and left in place until the
// next Save overwrites it.
func (r *SlotProductRepository) Load(ctx context.Context) (domain.Collection, error) {
	ctx, span := r.startSpan(ctx, "catalog.load")
	defer span.End()

	raw, ok, err := r.slot.Get(ctx, r.key)
	if err != nil {
		r.fail(ctx, span, "load", err)
		return nil, fmt.Errorf("load %q from %s: %w", r.key, r.slot.Backend(), err)
	}
	if !ok {
		observability.RecordStoreOperation(ctx, r.slot.Backend(), "load", "miss")
		return domain.Collection{}, nil
	}

	var products domain.Collection
	if err := json.Unmarshal(raw, &products); err != nil {
		slog.WarnContext(ctx, "stored catalog is not a product array, treating as empty",
			"backend", r.slot.Backend(),
			"key", r.key,
			"bytes", len(raw),
			"error", err,
		)
		span.SetAttributes(attribute.Bool("catalog.corrupt", true))
		observability.RecordStoreOperation(ctx, r.slot.Backend(), "load", "corrupt")
		return domain.Collection{}, nil
	}
	if products == nil {
		products = domain.Collection{}
	}

	span.SetAttributes(attribute.Int("catalog.size", len(products)))
	observability.RecordStoreOperation(ctx, r.slot.Backend(), "load", "success")
	observability.RecordStoreCollectionSize(ctx, "load", len(products))
	return products, nil
}

// Save overwrites the slot with the given catalog. A nil catalog is written
// as an empty array.
func (r *SlotProductRepository) Save(ctx context.Context, products domain.Collection) error {
	ctx, span := r.startSpan(ctx, "catalog.save")
	defer span.End()

	if products == nil {
		products = domain.Collection{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		r.fail(ctx, span, "save", err)
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := r.slot.Put(ctx, r.key, raw); err != nil {
		r.fail(ctx, span, "save", err)
		return fmt.Errorf("save %q to %s: %w", r.key, r.slot.Backend(), err)
	}

	span.SetAttributes(attribute.Int("catalog.size", len(products)))
	observability.RecordStoreOperation(ctx, r.slot.Backend(), "save", "success")
	observability.RecordStoreCollectionSize(ctx, "save", len(products))
	return nil
}

// Clear removes the slot entirely; a later Load sees an empty catalog.
func (r *SlotProductRepository) Clear(ctx context.Context) error {
	ctx, span := r.startSpan(ctx, "catalog.clear")
	defer span.End()

	if err := r.slot.Delete(ctx, r.key); err != nil {
		r.fail(ctx, span, "clear", err)
		return fmt.Errorf("clear %q on %s: %w", r.key, r.slot.Backend(), err)
	}
	observability.RecordStoreOperation(ctx, r.slot.Backend(), "clear", "success")
	observability.RecordStoreCollectionSize(ctx, "clear", 0)
	return nil
}

func (r *SlotProductRepository) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return observability.StartSpan(ctx, observability.TracerRepository, name,
		attribute.String("catalog.backend", r.slot.Backend()),
		attribute.String("catalog.key", r.key),
	)
}

func (r *SlotProductRepository) fail(ctx context.Context, span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	observability.RecordStoreOperation(ctx, r.slot.Backend(), op, "error")
}
