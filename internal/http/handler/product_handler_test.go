package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/repository"
	"github.com/sandeepkv93/catalog-editor/internal/service"
	servicegomock "github.com/sandeepkv93/catalog-editor/internal/service/gomock"
	"github.com/sandeepkv93/catalog-editor/internal/view"
)

type envelopeForTest struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func productRouterForTest(h *ProductHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Delete("/", h.Clear)
		r.Get("/categories", h.Categories)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelopeForTest) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var env envelopeForTest
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response %q: %v", rr.Body.String(), err)
	}
	return rr, env
}

func TestProductHandlerListPassesComposedQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	r := productRouterForTest(NewProductHandler(svc))

	svc.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, q view.Query) ([]domain.Product, error) {
		want := view.Query{Search: " mug ", Category: "Home", Sort: view.SortPriceLow}
		if q != want {
			t.Fatalf("expected %+v, got %+v", want, q)
		}
		return []domain.Product{{ID: 1, Title: "Mug", Price: 3, Category: "Home"}}, nil
	})

	rr, env := doJSON(t, r, http.MethodGet, "/api/v1/products?search=+mug+&category=Home&sort=price-low", "")
	if rr.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var data struct {
		Items []domain.Product `json:"items"`
		Count int              `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Count != 1 || data.Items[0].Title != "Mug" {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestProductHandlerListRejectsUnknownSort(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	r := productRouterForTest(NewProductHandler(svc))

	rr, env := doJSON(t, r, http.MethodGet, "/api/v1/products?sort=rating", "")
	if rr.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "BAD_REQUEST" {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestProductHandlerCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	r := productRouterForTest(NewProductHandler(svc))

	t.Run("created", func(t *testing.T) {
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, in service.ProductInput) (*domain.Product, error) {
			if in.Title != "Lamp" || in.Price != 0 {
				t.Fatalf("unexpected input %+v", in)
			}
			return &domain.Product{ID: 7, Title: in.Title, Price: in.Price, Image: in.Image, Category: in.Category}, nil
		})
		rr, _ := doJSON(t, r, http.MethodPost, "/api/v1/products", `{"title":"Lamp","price":0,"image":"i","category":"c"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
		}
	})

	t.Run("missing price reaches validation as NaN", func(t *testing.T) {
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, in service.ProductInput) (*domain.Product, error) {
			if !math.IsNaN(in.Price) {
				t.Fatalf("expected NaN price, got %v", in.Price)
			}
			return nil, service.ErrProductInvalidPrice
		})
		rr, env := doJSON(t, r, http.MethodPost, "/api/v1/products", `{"title":"Lamp","image":"i","category":"c"}`)
		if rr.Code != http.StatusBadRequest || env.Error.Code != "BAD_REQUEST" {
			t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		rr, _ := doJSON(t, r, http.MethodPost, "/api/v1/products", `{`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))
		rr, env := doJSON(t, r, http.MethodPost, "/api/v1/products", `{"title":"Lamp","price":1,"image":"i","category":"c"}`)
		if rr.Code != http.StatusInternalServerError || env.Error.Code != "INTERNAL" {
			t.Fatalf("expected 500, got %d body=%s", rr.Code, rr.Body.String())
		}
	})
}

func TestProductHandlerUpdateAndGetMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	r := productRouterForTest(NewProductHandler(svc))

	svc.EXPECT().Update(gomock.Any(), int64(99), gomock.Any()).Return(nil, repository.ErrProductNotFound)
	rr, env := doJSON(t, r, http.MethodPut, "/api/v1/products/99", `{"title":"a","price":1,"image":"i","category":"c"}`)
	if rr.Code != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}

	svc.EXPECT().GetByID(gomock.Any(), int64(99)).Return(nil, repository.ErrProductNotFound)
	rr, _ = doJSON(t, r, http.MethodGet, "/api/v1/products/99", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr, _ = doJSON(t, r, http.MethodGet, "/api/v1/products/abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rr.Code)
	}
}

func TestProductHandlerDeleteRequiresConfirmation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	r := productRouterForTest(NewProductHandler(svc))

	rr, env := doJSON(t, r, http.MethodDelete, "/api/v1/products/5", "")
	if rr.Code != http.StatusPreconditionRequired || env.Error.Code != "CONFIRMATION_REQUIRED" {
		t.Fatalf("expected 428, got %d body=%s", rr.Code, rr.Body.String())
	}
	if env.Error.Details["prompt"] == "" {
		t.Fatal("expected prompt in details")
	}

	svc.EXPECT().Delete(gomock.Any(), int64(5)).Return(nil)
	rr, _ = doJSON(t, r, http.MethodDelete, "/api/v1/products/5?confirm=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	svc.EXPECT().Delete(gomock.Any(), int64(5)).Return(repository.ErrProductNotFound)
	rr, _ = doJSON(t, r, http.MethodDelete, "/api/v1/products/5?confirm=true", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestProductHandlerClear(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	r := productRouterForTest(NewProductHandler(svc))

	rr, _ := doJSON(t, r, http.MethodDelete, "/api/v1/products", "")
	if rr.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428, got %d", rr.Code)
	}

	svc.EXPECT().ClearAll(gomock.Any()).Return(nil)
	rr, _ = doJSON(t, r, http.MethodDelete, "/api/v1/products?confirm=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestProductHandlerCategories(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	r := productRouterForTest(NewProductHandler(svc))

	svc.EXPECT().Categories(gomock.Any()).Return([]string{"Books", "Home"}, nil)
	rr, env := doJSON(t, r, http.MethodGet, "/api/v1/products/categories", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(string(env.Data), `"Books"`) {
		t.Fatalf("unexpected data %s", env.Data)
	}
}
