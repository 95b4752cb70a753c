package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/logger"
	"github.com/ariefcatur/storefront-orders/internal/redisx"
	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	maxBodyBytes   = 1 << 20
	defaultPopular = 10
	maxPopular     = 50
)

type OrderService interface {
	PlaceOrder(ctx context.Context, in shop.PlaceOrderInput) (shop.PlaceOrderResult, error)
	SubmitReview(ctx context.Context, in shop.SubmitReviewInput) error
}

type CatalogReader interface {
	ListCategory(ctx context.Context, categoryID int64) ([]shop.ProductView, error)
	Search(ctx context.Context, query string) ([]shop.ProductView, error)
	Product(ctx context.Context, id int64) (shop.ProductView, error)
}

type PopularReader interface {
	Top(ctx context.Context, limit int) ([]redisx.Ranked, error)
}

// ShopHandler is a thin dispatcher: decode, call one service, encode.
type ShopHandler struct {
	Orders  OrderService
	Catalog CatalogReader
	Popular PopularReader
	Log     *zap.Logger

	BreakfastCategoryID int64
	XmasCategoryID      int64
	Timeout             time.Duration
}

type placeOrderResp struct {
	Success bool `json:"success"`
	shop.PlaceOrderResult
}

type okResp struct {
	Success bool `json:"success"`
}

type productResp struct {
	Success bool             `json:"success"`
	Product shop.ProductView `json:"product"`
}

func (h *ShopHandler) Register(r chi.Router) {
	r.Post("/place-order", h.placeOrder)
	r.Post("/submit-review", h.submitReview)
	r.Get("/breakfast-products", h.listCategory(h.BreakfastCategoryID))
	r.Get("/xmas-products", h.listCategory(h.XmasCategoryID))
	r.Get("/api/search", h.search)
	r.Get("/api/product/{id}", h.product)
	r.Get("/api/popular", h.popular)
}

func (h *ShopHandler) context(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := shop.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (h *ShopHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, failure{Message: "invalid request body"})
		return false
	}
	return true
}

func (h *ShopHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var in shop.PlaceOrderInput
	if !h.decode(w, r, &in) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	out, err := h.Orders.PlaceOrder(ctx, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeOrderResp{Success: true, PlaceOrderResult: out})
}

func (h *ShopHandler) submitReview(w http.ResponseWriter, r *http.Request) {
	var in shop.SubmitReviewInput
	if !h.decode(w, r, &in) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	if err := h.Orders.SubmitReview(ctx, in); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResp{Success: true})
}

func (h *ShopHandler) listCategory(categoryID int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.context(r)
		defer cancel()

		items, err := h.Catalog.ListCategory(ctx, categoryID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (h *ShopHandler) search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	items, err := h.Catalog.Search(ctx, r.URL.Query().Get("query"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShopHandler) product(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, failure{Message: "invalid product id"})
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	p, err := h.Catalog.Product(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productResp{Success: true, Product: p})
}

func (h *ShopHandler) popular(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPopular
	}
	limit = min(limit, maxPopular)

	ctx, cancel := h.context(r)
	defer cancel()

	top, err := h.Popular.Top(ctx, limit)
	if err != nil {
		logger.WithRequest(r.Context(), h.logger()).Error("popular products failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, failure{Message: "popular products unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// writeError maps a service failure onto a status code. Only the classified
// message reaches the caller.
func (h *ShopHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *shop.Error
	if !errors.As(err, &e) {
		logger.WithRequest(r.Context(), h.logger()).Error("unclassified failure", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, failure{Message: "internal server error"})
		return
	}
	writeJSON(w, statusFor(e.Kind), failure{Message: e.Message})
}

func statusFor(k shop.Kind) int {
	switch k {
	case shop.KindValidation:
		return http.StatusBadRequest
	case shop.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *ShopHandler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}
