package http

import (
	"context"
	"net/http"
	"time"

	catalog "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/domain"
	catalogservice "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/service"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Catalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	Browse(ctx context.Context, q catalogservice.Query) ([]*catalog.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
	log     *zap.Logger
}

func NewProductHandler(catalog Catalog, timeout time.Duration, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
		log:     logger.OrNop(log),
	}
}

type ProductResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercent int              `json:"discount_percent,omitempty"`
	Images          []string         `json:"images"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

func toProductResponse(p *catalog.Product) ProductResponse {
	resp := ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Category:        p.Category,
		Description:     p.Description,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent(),
		Images:          p.Images,
	}
	if p.OriginalPrice.Valid {
		orig := p.OriginalPrice.Decimal
		resp.OriginalPrice = &orig
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	return resp
}

// GET /api/v1/products?category=&q=&sort=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	res, err := h.catalog.Browse(ctx, catalogservice.Query{
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Sort:     catalogservice.SortOrder(q.Get("sort")),
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	products := make([]ProductResponse, len(res))
	for i, p := range res {
		products[i] = toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p))
}
