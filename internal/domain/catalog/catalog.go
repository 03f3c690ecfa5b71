// Package catalog exposes the read-only view of products and branches that
// production planning depends on. The catalog itself is maintained elsewhere.
package catalog

import (
	"context"

	"lumpiah/internal/core/id"
)

// Product is an active, producible product.
type Product struct {
	ID         id.ID  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`
}

// Branch is a production site.
type Branch struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ProductReader lists the products planning must cover.
type ProductReader interface {
	GetActiveProducts(ctx context.Context) ([]Product, error)
}

// BranchReader lists branches that produce.
type BranchReader interface {
	GetActiveBranches(ctx context.Context) ([]Branch, error)
}
