// Package session keeps per-browser storefront state between requests.
package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/fairyhunter13/hampers-storefront/internal/cart"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
	"github.com/fairyhunter13/hampers-storefront/internal/nav"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// State is everything one browser session owns. It is never shared.
type State struct {
	Cart *cart.Cart      `json:"cart"`
	Nav  nav.Navigator   `json:"page"`
	Form model.OrderForm `json:"form"`
}

// NewState returns the state of a fresh session: empty cart, catalog page,
// empty form.
func NewState() *State {
	return &State{Cart: cart.New()}
}

// Store persists session state for the lifetime of a session.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, id string, st *State) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) bool
}
