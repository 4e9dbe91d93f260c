package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/catalog-editor/internal/editor"
	"github.com/sandeepkv93/catalog-editor/internal/http/response"
	"github.com/sandeepkv93/catalog-editor/internal/observability"
	"github.com/sandeepkv93/catalog-editor/internal/repository"
	"github.com/sandeepkv93/catalog-editor/internal/service"
)

type ProductHandler struct {
	svc service.ProductService
}

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type productBody struct {
	Title       string   `json:"title"`
	Price       *float64 `json:"price"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
}

func (b productBody) input() service.ProductInput {
	price := math.NaN()
	if b.Price != nil {
		price = *b.Price
	}
	return service.ProductInput{
		Title:       b.Title,
		Price:       price,
		Image:       b.Image,
		Category:    b.Category,
		Description: b.Description,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	items, err := h.svc.List(r.Context(), q)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
		"query": q,
	})
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list categories", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"categories": cats})
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	product, err := h.svc.GetByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body productBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	created, err := h.svc.Create(r.Context(), body.input())
	if err != nil {
		if errors.Is(err, service.ErrProductValidation) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create product", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.create",
		TargetType: "product",
		TargetID:   strconv.FormatInt(created.ID, 10),
		Action:     "create",
		Outcome:    "success",
		Reason:     "product_created",
	}, "title", created.Title)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	var body productBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	updated, err := h.svc.Update(r.Context(), productID, body.input())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		case errors.Is(err, service.ErrProductValidation):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to update product", nil)
		}
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.update",
		TargetType: "product",
		TargetID:   strconv.FormatInt(productID, 10),
		Action:     "update",
		Outcome:    "success",
		Reason:     "product_updated",
	}, "title", updated.Title)
	response.JSON(w, r, http.StatusOK, updated)
}

// Delete requires confirm=true, mirroring the prompt interactive surfaces show.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if !confirmed(r, "confirm", "true") {
		response.Error(w, r, http.StatusPreconditionRequired, "CONFIRMATION_REQUIRED", "repeat the request with confirm=true",
			map[string]string{"prompt": editor.PromptDelete})
		return
	}

	if err := h.svc.Delete(r.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to delete product", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.delete",
		TargetType: "product",
		TargetID:   strconv.FormatInt(productID, 10),
		Action:     "delete",
		Outcome:    "success",
		Reason:     "product_deleted",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func (h *ProductHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r, "confirm", "true") {
		response.Error(w, r, http.StatusPreconditionRequired, "CONFIRMATION_REQUIRED", "repeat the request with confirm=true",
			map[string]string{"prompt": editor.PromptClearAll})
		return
	}
	if err := h.svc.ClearAll(r.Context()); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to clear products", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.clear",
		TargetType: "collection",
		TargetID:   "products",
		Action:     "clear",
		Outcome:    "success",
		Reason:     "collection_cleared",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"cleared": true})
}
