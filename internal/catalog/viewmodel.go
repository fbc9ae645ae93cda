package catalog

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fairyhunter13/hampers-storefront/internal/identity"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
	"github.com/fairyhunter13/hampers-storefront/internal/obs"
)

// Stats is a point-in-time view of the catalog for metrics.
type Stats struct {
	Version       uint64 `json:"version"`
	Products      int    `json:"products"`
	Subscriptions int    `json:"subscriptions"`
	Errors        int    `json:"errors"`
	Subscribed    bool   `json:"subscribed"`
	LastError     string `json:"last_error,omitempty"`
}

// ViewModel keeps the latest product snapshot. Before Bind it is empty and
// has never touched the source.
type ViewModel struct {
	src Source
	seq Sequencer

	bindMu sync.Mutex
	wg     sync.WaitGroup

	mu            sync.RWMutex
	products      []model.Product
	version       uint64
	uid           string
	sub           Subscription
	subscriptions int
	errCount      int
	lastErr       error
}

// NewViewModel returns an unbound view model reading from src.
func NewViewModel(src Source) *ViewModel {
	return &ViewModel{src: src}
}

// Bind subscribes on behalf of id. Binding the identity that is already
// bound is a no-op; binding another one releases the old subscription first.
func (vm *ViewModel) Bind(ctx context.Context, id identity.Identity) error {
	vm.bindMu.Lock()
	defer vm.bindMu.Unlock()

	vm.mu.RLock()
	same := vm.sub != nil && vm.uid == id.UID
	vm.mu.RUnlock()
	if same {
		return nil
	}
	vm.release()

	sub, err := vm.src.Subscribe(ctx, id)
	if err != nil {
		obs.Logger.WithError(err).WithField("uid", id.UID).Error("catalog_subscribe_error")
		return errors.Wrap(err, "subscribe catalog")
	}
	vm.mu.Lock()
	vm.sub = sub
	vm.uid = id.UID
	vm.subscriptions++
	vm.mu.Unlock()

	vm.wg.Add(1)
	go vm.consume(sub)
	obs.Logger.WithField("uid", id.UID).Info("catalog_subscribed")
	return nil
}

// Close releases the subscription and waits for the consumer to stop.
func (vm *ViewModel) Close() {
	vm.bindMu.Lock()
	defer vm.bindMu.Unlock()
	vm.release()
}

// release must be called with bindMu held.
func (vm *ViewModel) release() {
	vm.mu.Lock()
	sub := vm.sub
	vm.sub = nil
	vm.uid = ""
	vm.mu.Unlock()
	if sub == nil {
		return
	}
	_ = sub.Close()
	vm.wg.Wait()
	obs.Logger.Info("catalog_unsubscribed")
}

func (vm *ViewModel) consume(sub Subscription) {
	defer vm.wg.Done()
	for u := range sub.Updates() {
		vm.apply(u)
	}
}

func (vm *ViewModel) apply(u Update) {
	if u.Err != nil {
		vm.mu.Lock()
		vm.errCount++
		vm.lastErr = u.Err
		kept := len(vm.products)
		vm.mu.Unlock()
		obs.Logger.WithError(u.Err).WithField("kept_products", kept).Error("catalog_subscription_error")
		return
	}
	list := make([]model.Product, len(u.Products))
	copy(list, u.Products)
	v := vm.seq.Next()
	vm.mu.Lock()
	vm.products = list
	vm.version = v
	vm.mu.Unlock()
	obs.Logger.WithFields(logrus.Fields{"version": v, "product_count": len(list)}).Info("catalog_snapshot")
}

// Products returns a copy of the current snapshot in store order.
func (vm *ViewModel) Products() []model.Product {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]model.Product, len(vm.products))
	copy(out, vm.products)
	return out
}

// Lookup finds a product by id in the current snapshot.
func (vm *ViewModel) Lookup(id string) (model.Product, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, p := range vm.products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// Version is bumped on every applied snapshot; zero means none yet.
func (vm *ViewModel) Version() uint64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.version
}

// Stats reports counters for the metrics endpoint.
func (vm *ViewModel) Stats() Stats {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	s := Stats{
		Version:       vm.version,
		Products:      len(vm.products),
		Subscriptions: vm.subscriptions,
		Errors:        vm.errCount,
		Subscribed:    vm.sub != nil,
	}
	if vm.lastErr != nil {
		s.LastError = vm.lastErr.Error()
	}
	return s
}
