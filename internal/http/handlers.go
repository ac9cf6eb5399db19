package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/feedbridge/internal/apperr"
	"github.com/fairyhunter13/feedbridge/internal/config"
	httpopenapi "github.com/fairyhunter13/feedbridge/internal/http/openapi"
	"github.com/fairyhunter13/feedbridge/internal/model"
	"github.com/fairyhunter13/feedbridge/internal/obs"
	"github.com/fairyhunter13/feedbridge/internal/reconcile"
)

// App holds the handlers' dependencies.
type App struct {
	Cfg config.Config
	Rec *reconcile.Reconciler
}

func NewApp(cfg config.Config, rec *reconcile.Reconciler) *App {
	return &App{Cfg: cfg, Rec: rec}
}

// feedHandler serves the corrected feed for one channel. The whole pipeline
// runs per request; there is no cross-request state.
func (a *App) feedHandler(w http.ResponseWriter, r *http.Request) {
	ch, ok := model.ParseChannel(chi.URLParam(r, "channel"))
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "unknown feed channel")
		return
	}
	body, err := a.Rec.BuildFeed(r.Context(), ch)
	if err != nil {
		obs.Logger.Error("feed_build_failed",
			"channel", ch,
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		WriteJSONError(w, apperr.HTTPStatus(err), apperr.Message(err), "")
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

// catalogHandler serves the raw flattened product set for inspection.
func (a *App) catalogHandler(w http.ResponseWriter, r *http.Request) {
	products, err := a.Rec.Catalog(r.Context())
	if err != nil {
		obs.Logger.Error("catalog_fetch_failed",
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		WriteJSONError(w, apperr.HTTPStatus(err), apperr.Message(err), "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(products)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
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
    <title>API Docs</title>
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
