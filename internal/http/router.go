package httpapi

import (
	"expvar"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/fairyhunter13/hampers-storefront/internal/obs"
	"github.com/fairyhunter13/hampers-storefront/internal/web"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware(obs.ServiceName))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})

	s := func(h http.HandlerFunc) http.Handler { return app.WithSession(h) }

	// pages
	r.Handle("/", s(app.indexHandler)).Methods(http.MethodGet)
	r.Handle("/nav", s(app.navFormHandler)).Methods(http.MethodPost)
	r.Handle("/cart/add", s(app.addFormHandler)).Methods(http.MethodPost)
	r.Handle("/cart/remove", s(app.removeFormHandler)).Methods(http.MethodPost)
	r.Handle("/cart/open", s(app.cartOpenHandler(true))).Methods(http.MethodPost)
	r.Handle("/cart/close", s(app.cartOpenHandler(false))).Methods(http.MethodPost)
	r.Handle("/checkout", s(app.checkoutFormHandler)).Methods(http.MethodPost)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", web.Static()))

	// json
	r.HandleFunc("/api/products", app.productsHandler).Methods(http.MethodGet)
	r.Handle("/api/cart", s(app.getCartHandler)).Methods(http.MethodGet)
	r.Handle("/api/cart/items", s(app.addItemHandler)).Methods(http.MethodPost)
	r.Handle("/api/cart/items/{id}", s(app.removeItemHandler)).Methods(http.MethodDelete)
	r.Handle("/api/nav", s(app.getNavHandler)).Methods(http.MethodGet)
	r.Handle("/api/nav", s(app.putNavHandler)).Methods(http.MethodPut)
	r.Handle("/api/form", s(app.patchFormHandler)).Methods(http.MethodPatch)
	r.Handle("/api/checkout", s(app.checkoutHandler)).Methods(http.MethodPost)

	// ops
	r.HandleFunc("/healthz", app.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/debug/metrics", app.metricsHandler).Methods(http.MethodGet)
	r.Handle("/debug/vars", expvar.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/openapi.yaml", app.openapiHandler).Methods(http.MethodGet)
	r.HandleFunc("/docs", app.docsHandler).Methods(http.MethodGet)

	return WithRequestID(WithLogging(r))
}
