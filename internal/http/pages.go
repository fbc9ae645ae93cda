package httpapi

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/fairyhunter13/hampers-storefront/internal/checkout"
	"github.com/fairyhunter13/hampers-storefront/internal/nav"
	"github.com/fairyhunter13/hampers-storefront/internal/storefront"
)

type pageData struct {
	About  bool
	View   storefront.View
	Errors []string
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, v storefront.View, problems ...string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := pageData{About: v.Page == nav.About, View: v, Errors: problems}
	if err := a.pages.Render(w, data); err != nil {
		logFor(r).WithError(err).Error("render_failed")
	}
}

func backHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) indexHandler(w http.ResponseWriter, r *http.Request) {
	v, err := a.Shop.View(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, v)
}

func (a *App) navFormHandler(w http.ResponseWriter, r *http.Request) {
	p, err := nav.ParsePage(r.FormValue("page"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if _, err := a.Shop.Navigate(r.Context(), SessionIDFromContext(r.Context()), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	backHome(w, r)
}

func (a *App) addFormHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := a.Shop.AddToCart(r.Context(), SessionIDFromContext(r.Context()), r.FormValue("product_id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	backHome(w, r)
}

func (a *App) removeFormHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := a.Shop.RemoveFromCart(r.Context(), SessionIDFromContext(r.Context()), r.FormValue("product_id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	backHome(w, r)
}

func (a *App) cartOpenHandler(open bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := a.Shop.SetCartOpen(r.Context(), SessionIDFromContext(r.Context()), open); err != nil {
			writeDomainError(w, r, err)
			return
		}
		backHome(w, r)
	}
}

// formPatch takes only the fields the form actually posted.
func formPatch(r *http.Request) storefront.FormPatch {
	_ = r.ParseForm()
	field := func(k string) *string {
		if _, ok := r.PostForm[k]; !ok {
			return nil
		}
		v := r.PostForm.Get(k)
		return &v
	}
	return storefront.FormPatch{Name: field("name"), Phone: field("phone"), Address: field("address")}
}

// checkoutFormHandler sends the browser to the messaging link. Validation
// failures re-render the page with the cart open and the problem listed.
func (a *App) checkoutFormHandler(w http.ResponseWriter, r *http.Request) {
	sid := SessionIDFromContext(r.Context())
	order, err := a.Shop.Checkout(r.Context(), sid, formPatch(r))
	if err == nil {
		http.Redirect(w, r, order.Link, http.StatusSeeOther)
		return
	}
	status, _ := classify(err)
	if status != http.StatusBadRequest {
		writeDomainError(w, r, err)
		return
	}
	v, verr := a.Shop.SetCartOpen(r.Context(), sid, true)
	if verr != nil {
		writeDomainError(w, r, verr)
		return
	}
	a.render(w, r, http.StatusBadRequest, v, problemText(err))
}

func problemText(err error) string {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return "Keranjang masih kosong."
	case errors.Is(err, checkout.ErrMissingName):
		return "Nama wajib diisi."
	case errors.Is(err, checkout.ErrMissingAddress):
		return "Alamat pengiriman wajib diisi."
	}
	return err.Error()
}
