package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/wbdash/internal/charts"
	"github.com/AngelCh415/wbdash/internal/config"
	"github.com/AngelCh415/wbdash/internal/ingest"
	"github.com/AngelCh415/wbdash/internal/metrics"
	"github.com/AngelCh415/wbdash/internal/models"
	"github.com/AngelCh415/wbdash/internal/utils"
)

// Loader runs a dataset load; *ingest.ETL satisfies it.
type Loader interface {
	Run(ctx context.Context, sheetID, sheetName string) (models.Source, error)
}

type router struct {
	log      zerolog.Logger
	etl      Loader
	svc      *metrics.Service
	validate *validator.Validate
}

func NewRouter(log zerolog.Logger, api config.APIConfig, etl Loader, svc *metrics.Service, ws http.HandlerFunc) http.Handler {
	rt := &router{log: log, etl: etl, svc: svc, validate: validator.New()}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(utils.Logger(log))
	mux.Use(chimiddleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: api.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !svc.Loaded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("no dataset loaded"))
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	if ws != nil {
		mux.Get("/ws", ws)
	}

	mux.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if api.LoadRateLimit > 0 {
				r.Use(httprate.LimitByIP(api.LoadRateLimit, time.Minute))
			}
			r.Post("/load", rt.load)
			r.Post("/reset", rt.reset)
		})
		r.Get("/selectors", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, 200, svc.Selectors()) })
		r.Post("/filter", rt.filter)
		r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, 200, svc.Dashboard()) })
		r.Get("/records", rt.records)
		r.Get("/charts/{kind}.png", rt.chart)
	})

	return mux
}

func (rt *router) load(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src, err := rt.etl.Run(r.Context(), q.Get("sheet_id"), q.Get("sheet_name"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, 200, src)
}

// reset drops the product and source selection and reloads the current sheet.
func (rt *router) reset(w http.ResponseWriter, r *http.Request) {
	cur := rt.svc.Source()
	if _, err := rt.etl.Run(r.Context(), cur.SheetID, cur.SheetName); err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, 200, rt.svc.Dashboard())
}

func (rt *router) filter(w http.ResponseWriter, r *http.Request) {
	var c models.Criteria
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid criteria: "+err.Error())
		return
	}
	if err := rt.validate.Struct(c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid criteria: "+err.Error())
		return
	}
	writeJSON(w, 200, rt.svc.ApplyFilter(c))
}

func (rt *router) records(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := atoiDef(q.Get("limit"), 100)
	offset := atoiDef(q.Get("offset"), 0)
	writeJSON(w, 200, rt.svc.Records(limit, offset))
}

func (rt *router) chart(w http.ResponseWriter, r *http.Request) {
	kind, err := charts.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	out, ok := rt.svc.Chart(kind)
	if !ok {
		writeError(w, http.StatusNotFound, "chart has no data")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(out.PNG)))
	w.WriteHeader(200)
	w.Write(out.PNG)
}

func (rt *router) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		rt.log.Error().Err(err).Str("rid", utils.RID(r.Context())).Msg("request failed")
	}
	writeError(w, code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrNoSheetID):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrLoadInProgress):
		return http.StatusConflict
	case errors.Is(err, ingest.ErrCacheMiss):
		return http.StatusBadGateway
	case errors.Is(err, ingest.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
