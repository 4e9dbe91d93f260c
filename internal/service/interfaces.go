package service

import (
	"context"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/view"
)

//go:generate mockgen -destination=gomock/product_service_mock.go -package=gomock . ProductService

type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	ClearAll(ctx context.Context) error
	Import(ctx context.Context, items []domain.Product, replace bool) (ImportReport, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	All(ctx context.Context) (domain.Collection, error)
	List(ctx context.Context, q view.Query) ([]domain.Product, error)
	Listing(ctx context.Context, q view.Query) (view.Listing, error)
	Categories(ctx context.Context) ([]string, error)
}

var _ ProductService = (*CatalogService)(nil)
