// Package model defines domain types used by the storefront.
package model

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as published by the catalog store.
type Product struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Price *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Image string   `json:"img,omitempty" yaml:"img,omitempty"`
}

// UnitPrice returns the price, treating a missing one as zero.
func (p Product) UnitPrice() decimal.Decimal {
	return priceOf(p.Price)
}

// ProductFromData builds a Product from an untyped document body.
// Fields of the wrong type are dropped instead of failing the whole document.
func ProductFromData(id string, data map[string]any) Product {
	p := Product{ID: id}
	if v, ok := data["name"].(string); ok {
		p.Name = v
	}
	if v, ok := data["img"].(string); ok {
		p.Image = v
	}
	var price float64
	switch v := data["price"].(type) {
	case float64:
		price = v
	case float32:
		price = float64(v)
	case int64:
		price = float64(v)
	case int:
		price = float64(v)
	default:
		return p
	}
	if ValidPrice(price) {
		p.Price = &price
	}
	return p
}

// CartLine is one product in a cart with a copy of its catalog fields at add time.
type CartLine struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price,omitempty"`
	Image     string   `json:"img,omitempty"`
	Quantity  int      `json:"quantity"`
}

// Subtotal returns price x quantity; a missing price contributes zero.
func (l CartLine) Subtotal() decimal.Decimal {
	return priceOf(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderForm holds the buyer fields collected at checkout.
// Phone is collected but optional and never part of the order message.
type OrderForm struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address"`
}

// Missing lists the required fields that are blank.
func (f OrderForm) Missing() []string {
	var out []string
	if strings.TrimSpace(f.Name) == "" {
		out = append(out, "name")
	}
	if strings.TrimSpace(f.Address) == "" {
		out = append(out, "address")
	}
	return out
}

// ValidPrice reports whether v can be a unit price: finite and not negative.
func ValidPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func priceOf(p *float64) decimal.Decimal {
	if p == nil || !ValidPrice(*p) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*p)
}

// Float returns a pointer to v; handy for literals.
func Float(v float64) *float64 { return &v }
