package health

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
)

// Pinger is satisfied by every catalog slot backend that holds a connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker reports whether the catalog slot backend is reachable.
type StoreChecker struct {
	name   string
	pinger Pinger
}

// NewStoreChecker returns nil when the backend has nothing to ping, such as
// the in-memory slot.
func NewStoreChecker(backend string, slot any) Checker {
	p, ok := slot.(Pinger)
	if !ok || p == nil {
		return nil
	}
	return &StoreChecker{name: "store:" + backend, pinger: p}
}

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	return resultOf(c.name, c.pinger.Ping(ctx))
}

// CatalogLoader reads the product collection.
type CatalogLoader interface {
	Load(ctx context.Context) (domain.Collection, error)
}

// CatalogChecker proves the products slot can be read end to end, not only
// that the backend answers.
type CatalogChecker struct {
	loader CatalogLoader
}

func NewCatalogChecker(loader CatalogLoader) Checker {
	if loader == nil {
		return nil
	}
	return &CatalogChecker{loader: loader}
}

func (c *CatalogChecker) Check(ctx context.Context) CheckResult {
	products, err := c.loader.Load(ctx)
	res := resultOf("catalog", err)
	if err == nil {
		res.Detail = fmt.Sprintf("%d products", len(products))
	}
	return res
}

// RedisChecker covers the shared redis client used for distributed rate
// limiting.
type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	return resultOf("redis", c.client.Ping(ctx).Err())
}

func resultOf(name string, err error) CheckResult {
	if err != nil {
		return CheckResult{Name: name, Error: err.Error()}
	}
	return CheckResult{Name: name, Healthy: true}
}
