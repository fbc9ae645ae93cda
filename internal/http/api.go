package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fairyhunter13/hampers-storefront/internal/checkout"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
	"github.com/fairyhunter13/hampers-storefront/internal/nav"
	"github.com/fairyhunter13/hampers-storefront/internal/storefront"
)

const maxBody = 1 << 20

type productsResponse struct {
	Version  uint64          `json:"version"`
	Products []model.Product `json:"products"`
}

type cartResponse struct {
	Lines        []model.CartLine `json:"lines"`
	Total        decimal.Decimal  `json:"total"`
	TotalDisplay string           `json:"total_display"`
	ItemCount    int              `json:"item_count"`
	Open         bool             `json:"open"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

type navBody struct {
	Page string `json:"page"`
}

type checkoutResponse struct {
	checkout.Order
	TotalDisplay string `json:"total_display"`
}

// decodeJSON applies the content type and strict decoding rules shared by
// every JSON endpoint. It reports false after writing the error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (a *App) cartJSON(v storefront.View) cartResponse {
	lines := v.Lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	return cartResponse{
		Lines:        lines,
		Total:        v.Total,
		TotalDisplay: a.Shop.Composer().FormatAmount(v.Total),
		ItemCount:    v.ItemCount,
		Open:         v.CartOpen,
	}
}

func (a *App) productsHandler(w http.ResponseWriter, r *http.Request) {
	products, version := a.Shop.Products()
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, productsResponse{Version: version, Products: products})
}

func (a *App) getCartHandler(w http.ResponseWriter, r *http.Request) {
	v, err := a.Shop.View(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.cartJSON(v))
}

func (a *App) addItemHandler(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}
	v, err := a.Shop.AddToCart(r.Context(), SessionIDFromContext(r.Context()), req.ProductID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.cartJSON(v))
}

func (a *App) removeItemHandler(w http.ResponseWriter, r *http.Request) {
	v, err := a.Shop.RemoveFromCart(r.Context(), SessionIDFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.cartJSON(v))
}

func (a *App) getNavHandler(w http.ResponseWriter, r *http.Request) {
	v, err := a.Shop.View(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, navBody{Page: string(v.Page)})
}

func (a *App) putNavHandler(w http.ResponseWriter, r *http.Request) {
	var req navBody
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := nav.ParsePage(req.Page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	v, err := a.Shop.Navigate(r.Context(), SessionIDFromContext(r.Context()), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, navBody{Page: string(v.Page)})
}

func (a *App) patchFormHandler(w http.ResponseWriter, r *http.Request) {
	var patch storefront.FormPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	v, err := a.Shop.UpdateForm(r.Context(), SessionIDFromContext(r.Context()), patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Form)
}

func (a *App) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	var patch storefront.FormPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	order, err := a.Shop.Checkout(r.Context(), SessionIDFromContext(r.Context()), patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	logFor(r).WithFields(logrus.Fields{"reference": order.Reference}).Debug("checkout_link_issued")
	writeJSON(w, http.StatusOK, checkoutResponse{
		Order:        order,
		TotalDisplay: a.Shop.Composer().FormatAmount(order.Total),
	})
}
