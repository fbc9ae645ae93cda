package httpapi

import (
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/hampers-storefront/internal/config"
	httpopenapi "github.com/fairyhunter13/hampers-storefront/internal/http/openapi"
	"github.com/fairyhunter13/hampers-storefront/internal/storefront"
	"github.com/fairyhunter13/hampers-storefront/internal/web"
)

type App struct {
	Cfg     config.Config
	Shop    *storefront.Service
	pages   *web.Renderer
	closing atomic.Bool
	started time.Time
}

func NewApp(cfg config.Config, shop *storefront.Service) (*App, error) {
	c := shop.Composer()
	pages, err := web.NewRenderer(template.FuncMap{
		"price":  c.FormatPrice,
		"amount": c.FormatAmount,
	})
	if err != nil {
		return nil, err
	}
	return &App{Cfg: cfg, Shop: shop, pages: pages, started: time.Now()}, nil
}

// StartShutdown stops accepting session mutations.
func (a *App) StartShutdown() {
	a.closing.Store(true)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	if a.closing.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	if !a.Shop.Ready(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "session_store_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	st := a.Shop.Stats()
	m := map[string]any{
		"catalog_version":       st.Catalog.Version,
		"catalog_products":      st.Catalog.Products,
		"catalog_subscribed":    st.Catalog.Subscribed,
		"catalog_subscriptions": st.Catalog.Subscriptions,
		"catalog_errors":        st.Catalog.Errors,
		"cart_adds":             st.CartAdds,
		"cart_removes":          st.CartRemoves,
		"navigations":           st.Navigations,
		"checkouts":             st.Checkouts,
		"uptime_sec":            time.Since(a.started).Seconds(),
	}
	if st.Catalog.LastError != "" {
		m["catalog_last_error"] = st.Catalog.LastError
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Dapur Ghania API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
