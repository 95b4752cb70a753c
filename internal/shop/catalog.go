package shop

import (
	"context"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	minSearchLen = 2
	searchLimit  = 10
)

type ProductReader interface {
	ListByCategory(ctx context.Context, categoryID int64) ([]Product, error)
	Search(ctx context.Context, query string, limit int) ([]Product, error)
	FindByID(ctx context.Context, id int64) (Product, bool, error)
}

// CatalogCache is a best-effort read-through cache. Misses and errors look the same.
type CatalogCache interface {
	Category(ctx context.Context, categoryID int64) ([]ProductView, bool)
	PutCategory(ctx context.Context, categoryID int64, items []ProductView)
	Product(ctx context.Context, id int64) (ProductView, bool)
	PutProduct(ctx context.Context, p ProductView)
}

type ProductView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	CategoryID  *int64  `json:"categoryId,omitempty"`
	Image       *string `json:"image"`
}

func toView(p Product, withCategory bool) ProductView {
	v := ProductView{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price}
	if withCategory {
		c := p.CategoryID
		v.CategoryID = &c
	}
	if len(p.Image) > 0 {
		img := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(p.Image)
		v.Image = &img
	}
	return v
}

type Catalog struct {
	Products ProductReader
	Cache    CatalogCache
	Log      *zap.Logger
}

func (c *Catalog) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Catalog) ListCategory(ctx context.Context, categoryID int64) ([]ProductView, error) {
	if c.Cache != nil {
		if items, ok := c.Cache.Category(ctx, categoryID); ok {
			return items, nil
		}
	}
	ps, err := c.Products.ListByCategory(ctx, categoryID)
	if err != nil {
		c.logger().Error("list category failed", zap.Int64("category_id", categoryID), zap.Error(err))
		return nil, &Error{Kind: KindTransaction, Message: "products could not be loaded", Err: err}
	}
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toView(p, false))
	}
	if c.Cache != nil {
		c.Cache.PutCategory(ctx, categoryID, out)
	}
	return out, nil
}

func (c *Catalog) Search(ctx context.Context, query string) ([]ProductView, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minSearchLen {
		return nil, validationError("search query must be at least 2 characters")
	}
	ps, err := c.Products.Search(ctx, q, searchLimit)
	if err != nil {
		c.logger().Error("search failed", zap.String("query", q), zap.Error(err))
		return nil, &Error{Kind: KindTransaction, Message: "search failed", Err: err}
	}
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toView(p, true))
	}
	return out, nil
}

func (c *Catalog) Product(ctx context.Context, id int64) (ProductView, error) {
	if c.Cache != nil {
		if v, ok := c.Cache.Product(ctx, id); ok {
			return v, nil
		}
	}
	p, found, err := c.Products.FindByID(ctx, id)
	if err != nil {
		c.logger().Error("find product failed", zap.Int64("product_id", id), zap.Error(err))
		return ProductView{}, &Error{Kind: KindTransaction, Message: "product could not be loaded", Err: err}
	}
	if !found {
		return ProductView{}, &Error{Kind: KindNotFound, Message: "product not found"}
	}
	v := toView(p, true)
	if c.Cache != nil {
		c.Cache.PutProduct(ctx, v)
	}
	return v, nil
}
