package storefront

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/fairyhunter13/hampers-storefront/internal/catalog"
	"github.com/fairyhunter13/hampers-storefront/internal/checkout"
	"github.com/fairyhunter13/hampers-storefront/internal/identity"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
	"github.com/fairyhunter13/hampers-storefront/internal/nav"
	"github.com/fairyhunter13/hampers-storefront/internal/session"
)

var products = []model.Product{
	{ID: "lebaran-01", Name: "Hampers Lebaran", Price: model.Float(150000), Image: "lebaran.jpg"},
	{ID: "kue-01", Name: "Kue Kering"},
}

func strp(s string) *string { return &s }

func setupService(t *testing.T) (*Service, *catalog.ViewModel) {
	t.Helper()
	vm := catalog.NewViewModel(catalog.NewStaticSource(products))
	t.Cleanup(vm.Close)
	require.NoError(t, vm.Bind(context.Background(), identity.Identity{UID: "test"}))
	require.Eventually(t, func() bool { return vm.Version() > 0 }, 2*time.Second, 5*time.Millisecond)
	composer := checkout.NewComposer(checkout.Settings{
		Greeting:      "Halo Dapur Ghania, saya pesan:",
		CurrencyLabel: "Rp",
		BaseURL:       "https://wa.me",
		Phone:         "62895334016084",
		Locale:        language.Indonesian,
	})
	return New(vm, session.NewMemoryStore(time.Hour), composer), vm
}

func TestFreshSessionView(t *testing.T) {
	svc, _ := setupService(t)
	v, err := svc.View(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, nav.Catalog, v.Page)
	assert.Len(t, v.Products, 2)
	assert.Empty(t, v.Lines)
	assert.True(t, v.Total.IsZero())
	assert.False(t, v.CartOpen)
}

func TestAddToCartDenormalisesAndOpensPanel(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, err := svc.AddToCart(ctx, "s1", "lebaran-01")
	require.NoError(t, err)
	v, err := svc.AddToCart(ctx, "s1", "lebaran-01")
	require.NoError(t, err)

	want := []model.CartLine{{ProductID: "lebaran-01", Name: "Hampers Lebaran", Price: model.Float(150000), Image: "lebaran.jpg", Quantity: 2}}
	if diff := cmp.Diff(want, v.Lines); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, v.ItemCount)
	assert.Equal(t, "300000", v.Total.String())
	assert.True(t, v.CartOpen)

	_, err = svc.AddToCart(ctx, "s1", "ghost")
	assert.True(t, errors.Is(err, ErrUnknownProduct))
}

func TestRemoveAndClosePanel(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, err := svc.AddToCart(ctx, "s1", "kue-01")
	require.NoError(t, err)

	v, err := svc.RemoveFromCart(ctx, "s1", "not-in-cart")
	require.NoError(t, err)
	assert.Len(t, v.Lines, 1)

	v, err = svc.SetCartOpen(ctx, "s1", false)
	require.NoError(t, err)
	assert.False(t, v.CartOpen)

	v, err = svc.RemoveFromCart(ctx, "s1", "kue-01")
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
}

func TestSessionsDoNotShareCarts(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, err := svc.AddToCart(ctx, "a", "kue-01")
	require.NoError(t, err)
	v, err := svc.View(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
}

func TestNavigationKeepsCatalogWithoutResubscribing(t *testing.T) {
	svc, vm := setupService(t)
	ctx := context.Background()
	before, err := svc.View(ctx, "s1")
	require.NoError(t, err)

	v, err := svc.Navigate(ctx, "s1", nav.About)
	require.NoError(t, err)
	assert.Equal(t, nav.About, v.Page)
	v, err = svc.Navigate(ctx, "s1", nav.Catalog)
	require.NoError(t, err)
	assert.Equal(t, nav.Catalog, v.Page)

	if diff := cmp.Diff(before.Products, v.Products); diff != "" {
		t.Fatalf("catalog changed across navigation:\n%s", diff)
	}
	assert.Equal(t, before.CatalogVersion, v.CatalogVersion)
	assert.Equal(t, 1, vm.Stats().Subscriptions)
}

func TestCheckoutComposesAndKeepsCart(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, err := svc.AddToCart(ctx, "s1", "lebaran-01")
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "s1", "lebaran-01")
	require.NoError(t, err)

	_, err = svc.UpdateForm(ctx, "s1", FormPatch{Phone: strp("0812")})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "s1", FormPatch{Name: strp("Ani")})
	assert.True(t, errors.Is(err, checkout.ErrMissingAddress))

	o, err := svc.Checkout(ctx, "s1", FormPatch{Name: strp("Ani"), Address: strp("Jl. Mawar 1")})
	require.NoError(t, err)
	assert.Contains(t, o.Message, "Hampers Lebaran (2x)")
	assert.Contains(t, o.Message, "Rp 300.000")

	v, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, v.ItemCount)
	assert.Equal(t, model.OrderForm{Name: "Ani", Phone: "0812", Address: "Jl. Mawar 1"}, v.Form)

	st := svc.Stats()
	assert.EqualValues(t, 1, st.Checkouts)
	assert.EqualValues(t, 2, st.CartAdds)
}

func TestConcurrentAddAndViewOnOneSession(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	const workers = 50

	var wg sync.WaitGroup
	errs := make(chan error, 2*workers)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.AddToCart(ctx, "s1", "kue-01")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			v, err := svc.View(ctx, "s1")
			if err == nil && v.ItemCount > workers {
				err = errors.Errorf("item count %d", v.ItemCount)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	v, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, workers, v.ItemCount)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, workers, v.Lines[0].Quantity)
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.Checkout(context.Background(), "s1", FormPatch{Name: strp("Ani"), Address: strp("x")})
	assert.True(t, errors.Is(err, checkout.ErrEmptyCart))
}
