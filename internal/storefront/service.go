// Package storefront wires the catalog, per-session carts, navigation and
// checkout into the operations the HTTP layer calls.
package storefront

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/hampers-storefront/internal/catalog"
	"github.com/fairyhunter13/hampers-storefront/internal/checkout"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
	"github.com/fairyhunter13/hampers-storefront/internal/nav"
	"github.com/fairyhunter13/hampers-storefront/internal/obs"
	"github.com/fairyhunter13/hampers-storefront/internal/session"
)

// ErrUnknownProduct is returned when an add-to-cart names a product that is
// not in the current catalog snapshot.
var ErrUnknownProduct = errors.New("unknown product")

// View is what one session sees on screen.
type View struct {
	Page           nav.Page         `json:"page"`
	Products       []model.Product  `json:"products"`
	CatalogVersion uint64           `json:"catalog_version"`
	Lines          []model.CartLine `json:"lines"`
	Total          decimal.Decimal  `json:"total"`
	ItemCount      int              `json:"item_count"`
	CartOpen       bool             `json:"cart_open"`
	Form           model.OrderForm  `json:"form"`
}

// FormPatch carries only the form fields that changed.
type FormPatch struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Stats is reported on the metrics endpoint.
type Stats struct {
	Catalog     catalog.Stats `json:"catalog"`
	CartAdds    uint64        `json:"cart_adds"`
	CartRemoves uint64        `json:"cart_removes"`
	Navigations uint64        `json:"navigations"`
	Checkouts   uint64        `json:"checkouts"`
	UptimeSec   float64       `json:"uptime_sec"`
}

// Service runs every session mutation one at a time, like a UI event loop.
type Service struct {
	catalog  *catalog.ViewModel
	sessions session.Store
	composer *checkout.Composer
	started  time.Time

	mu sync.Mutex

	adds        atomic.Uint64
	removes     atomic.Uint64
	navigations atomic.Uint64
	checkouts   atomic.Uint64
}

func New(vm *catalog.ViewModel, sessions session.Store, composer *checkout.Composer) *Service {
	return &Service{catalog: vm, sessions: sessions, composer: composer, started: time.Now()}
}

// Composer exposes the formatter used for prices in templates.
func (s *Service) Composer() *checkout.Composer { return s.composer }

// Products returns the current catalog snapshot and its version.
func (s *Service) Products() ([]model.Product, uint64) {
	return s.catalog.Products(), s.catalog.Version()
}

func (s *Service) load(ctx context.Context, sid string) (*session.State, error) {
	st, err := s.sessions.Get(ctx, sid)
	if errors.Is(err, session.ErrNotFound) {
		return session.NewState(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	return st, nil
}

// mutate applies fn to the session and renders the result. Stores may hand
// out shared state, so the view is built before s.mu is released.
func (s *Service) mutate(ctx context.Context, sid, op string, fn func(*session.State) error) (View, error) {
	ctx, span := obs.Tracer().Start(ctx, "storefront."+op)
	defer span.End()
	span.SetAttributes(attribute.String("storefront.session", sid))

	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx, sid)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return View{}, err
	}
	if err := fn(st); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return View{}, err
	}
	if err := s.sessions.Put(ctx, sid, st); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return View{}, errors.Wrap(err, "save session")
	}
	return s.view(st), nil
}

// view must be called with s.mu held.
func (s *Service) view(st *session.State) View {
	products, version := s.Products()
	return View{
		Page:           st.Nav.Current(),
		Products:       products,
		CatalogVersion: version,
		Lines:          st.Cart.Lines(),
		Total:          st.Cart.Total(),
		ItemCount:      st.Cart.ItemCount(),
		CartOpen:       st.Cart.IsOpen(),
		Form:           st.Form,
	}
}

// View renders the session's state without changing it.
func (s *Service) View(ctx context.Context, sid string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx, sid)
	if err != nil {
		return View{}, err
	}
	return s.view(st), nil
}

// AddToCart adds one unit of productID, copying its current catalog fields.
func (s *Service) AddToCart(ctx context.Context, sid, productID string) (View, error) {
	v, err := s.mutate(ctx, sid, "add_to_cart", func(st *session.State) error {
		p, ok := s.catalog.Lookup(productID)
		if !ok {
			return errors.Wrapf(ErrUnknownProduct, "%q", productID)
		}
		st.Cart.Add(p)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	s.adds.Add(1)
	return v, nil
}

// RemoveFromCart drops the line for productID, if any.
func (s *Service) RemoveFromCart(ctx context.Context, sid, productID string) (View, error) {
	v, err := s.mutate(ctx, sid, "remove_from_cart", func(st *session.State) error {
		st.Cart.Remove(productID)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	s.removes.Add(1)
	return v, nil
}

// SetCartOpen shows or hides the cart panel.
func (s *Service) SetCartOpen(ctx context.Context, sid string, open bool) (View, error) {
	v, err := s.mutate(ctx, sid, "set_cart_open", func(st *session.State) error {
		st.Cart.SetOpen(open)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return v, nil
}

// Navigate switches the page. The catalog subscription is not touched.
func (s *Service) Navigate(ctx context.Context, sid string, p nav.Page) (View, error) {
	v, err := s.mutate(ctx, sid, "navigate", func(st *session.State) error {
		st.Nav.Go(p)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	s.navigations.Add(1)
	return v, nil
}

// UpdateForm applies the changed fields of the order form.
func (s *Service) UpdateForm(ctx context.Context, sid string, patch FormPatch) (View, error) {
	v, err := s.mutate(ctx, sid, "update_form", func(st *session.State) error {
		applyPatch(&st.Form, patch)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return v, nil
}

func applyPatch(f *model.OrderForm, p FormPatch) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Phone != nil {
		f.Phone = *p.Phone
	}
	if p.Address != nil {
		f.Address = *p.Address
	}
}

// Checkout applies patch to the session form and composes the order. The
// form is saved even when validation fails so a re-rendered page keeps what
// was typed. The cart is kept as it is after a successful checkout.
func (s *Service) Checkout(ctx context.Context, sid string, patch FormPatch) (checkout.Order, error) {
	var (
		order      checkout.Order
		composeErr error
	)
	_, err := s.mutate(ctx, sid, "checkout", func(st *session.State) error {
		applyPatch(&st.Form, patch)
		order, composeErr = s.composer.Compose(st.Cart, st.Form)
		return nil
	})
	if err != nil {
		return checkout.Order{}, err
	}
	if composeErr != nil {
		return checkout.Order{}, composeErr
	}
	s.checkouts.Add(1)
	obs.Logger.WithFields(logrus.Fields{
		"reference":  order.Reference,
		"item_count": order.Items,
		"total":      order.Total.String(),
	}).Info("checkout_composed")
	return order, nil
}

// Ready reports whether session storage answers.
func (s *Service) Ready(ctx context.Context) bool { return s.sessions.Ping(ctx) }

func (s *Service) Stats() Stats {
	return Stats{
		Catalog:     s.catalog.Stats(),
		CartAdds:    s.adds.Load(),
		CartRemoves: s.removes.Load(),
		Navigations: s.navigations.Load(),
		Checkouts:   s.checkouts.Load(),
		UptimeSec:   time.Since(s.started).Seconds(),
	}
}
