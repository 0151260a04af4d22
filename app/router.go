package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MelomanCat/getaround-project/api"
	"github.com/MelomanCat/getaround-project/api/dashboard"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

const landingPage = `<!DOCTYPE html>
<html>
<head><title>Getaround API</title></head>
<body>
<h1>Getaround API</h1>
<p>Rental price predictions and check-in delay analysis.</p>
<ul>
<li><code>POST /predict</code> with <code>{"input": [car, ...]}</code> returns one daily price per car.</li>
<li><code>GET /dashboard/impact?scope=all|connect&amp;threshold=N</code> evaluates a minimum delay between rentals.</li>
<li><code>GET /dashboard/impact/table</code>, <code>/dashboard/delays</code>, <code>/dashboard/connect</code> serve the analytics views.</li>
<li><code>GET /healthz</code>, <code>GET /metrics</code></li>
</ul>
</body>
</html>
`

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status       string `json:"status"`
	ModelName    string `json:"model_name"`
	ModelVersion int    `json:"model_version"`
}

// RouterOptions lists the mounted handlers; nil handlers are skipped.
type RouterOptions struct {
	Predict        http.Handler
	Dashboard      *dashboard.Handler
	Audit          http.Handler
	Metrics        http.Handler
	Holder         *ModelHolder
	ModelName      string
	AllowedOrigins []string
	Log            logger.Logger
}

// NewRouter assembles the HTTP API.
func NewRouter(opts RouterOptions) http.Handler {
	if opts.Log == nil {
		opts.Log = logger.NopLogger{}
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(landingPage))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok", ModelName: opts.ModelName}
		if opts.Holder != nil {
			resp.ModelVersion = opts.Holder.Version()
			if !opts.Holder.Loaded() {
				resp.Status = "degraded"
			}
		}
		api.JSON(w, http.StatusOK, resp)
	})
	if opts.Predict != nil {
		r.Method(http.MethodPost, "/predict", opts.Predict)
	}
	if opts.Dashboard != nil {
		r.Route("/dashboard", opts.Dashboard.Routes)
	}
	if opts.Audit != nil {
		r.Method(http.MethodGet, "/audit/predictions", opts.Audit)
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debugw("http request", map[string]any{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			})
		})
	}
}
