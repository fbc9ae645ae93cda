package catalog

import (
	"context"

	"github.com/fairyhunter13/hampers-storefront/internal/identity"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
)

// StaticSource publishes a fixed list once and then stays open until closed.
type StaticSource struct {
	products []model.Product
}

// NewStaticSource copies products into a new source.
func NewStaticSource(products []model.Product) *StaticSource {
	list := make([]model.Product, len(products))
	copy(list, products)
	return &StaticSource{products: list}
}

func (s *StaticSource) Subscribe(ctx context.Context, _ identity.Identity) (Subscription, error) {
	return newStream(ctx, func(ctx context.Context, emit emitFunc) {
		if !emit(Update{Products: s.products}) {
			return
		}
		<-ctx.Done()
	}), nil
}
