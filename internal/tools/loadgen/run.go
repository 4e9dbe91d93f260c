package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/catalog-editor/internal/observability"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

// request is one templated call. Bodies are built per send so every create
// carries a distinct title.
type request struct {
	method string
	path   string
	body   func(r *rand.Rand) any
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	profile := strings.ToLower(cfg.Profile)
	if profile == "" {
		profile = "mixed"
	}
	requests := requestsForProfile(profile)
	if len(requests) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx atomic.Int64
	jobs := make(chan request, cfg.Concurrency*2)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < cfg.Concurrency; i++ {
		rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(i)))
		g.Go(func() error {
			for req := range jobs {
				status, err := send(gctx, client, cfg.BaseURL, req, rng)
				if err != nil {
					failures.Add(1)
					observability.RecordLoadgenRequest(gctx, "error", profile)
					continue
				}
				total.Add(1)
				class := "other"
				switch {
				case status >= 200 && status < 300:
					s2xx.Add(1)
					class = "2xx"
				case status >= 400 && status < 500:
					s4xx.Add(1)
					class = "4xx"
				case status >= 500:
					s5xx.Add(1)
					class = "5xx"
				}
				observability.RecordLoadgenRequest(gctx, class, profile)
			}
			return nil
		})
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
produce:
	for {
		select {
		case <-ctx.Done():
			break produce
		case <-ticker.C:
			select {
			case jobs <- requests[i%len(requests)]:
				i++
			case <-ctx.Done():
				break produce
			}
		}
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{
		TotalRequests: total.Load(),
		Failures:      failures.Load(),
		Status2xx:     s2xx.Load(),
		Status4xx:     s4xx.Load(),
		Status5xx:     s5xx.Load(),
	}, nil
}

func send(ctx context.Context, client *http.Client, baseURL string, r request, rng *rand.Rand) (int, error) {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body(rng))
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, strings.TrimRight(baseURL, "/")+r.path, body)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

var loadgenCategories = []string{"Home", "Kitchen", "Office", "Outdoor"}

func newProductBody(r *rand.Rand) any {
	return map[string]any{
		"title":       "loadgen-" + uuid.NewString(),
		"price":       float64(r.IntN(10000)) / 100,
		"image":       "https://picsum.photos/seed/loadgen/400/300",
		"category":    loadgenCategories[r.IntN(len(loadgenCategories))],
		"description": "generated by loadgen",
	}
}

func invalidProductBody(*rand.Rand) any {
	return map[string]any{"title": "", "price": -1}
}

func requestsForProfile(profile string) []request {
	reads := []request{
		{method: http.MethodGet, path: "/api/v1/products"},
		{method: http.MethodGet, path: "/api/v1/products?search=loadgen&sort=price-low"},
		{method: http.MethodGet, path: "/api/v1/products/categories"},
		{method: http.MethodGet, path: "/api/v1/products?category=Office&sort=name"},
	}
	errorsOnly := []request{
		{method: http.MethodGet, path: "/api/v1/products/999"},
		{method: http.MethodGet, path: "/api/v1/products?sort=cheapest"},
		{method: http.MethodPost, path: "/api/v1/products", body: invalidProductBody},
		{method: http.MethodDelete, path: "/api/v1/products"},
	}
	switch profile {
	case "read":
		return reads
	case "mixed":
		return append(append([]request{}, reads...),
			request{method: http.MethodPost, path: "/api/v1/products", body: newProductBody},
			request{method: http.MethodGet, path: "/"},
		)
	case "error-heavy":
		return append(errorsOnly, reads[0])
	default:
		return nil
	}
}
