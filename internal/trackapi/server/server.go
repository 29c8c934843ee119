package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/httpx"
	"github.com/tansive/trackcatalog/internal/common/logtrace"
	commonmiddleware "github.com/tansive/trackcatalog/internal/common/middleware"
	"github.com/tansive/trackcatalog/internal/trackapi/apis"
	"github.com/tansive/trackcatalog/internal/trackapi/config"
	"github.com/tansive/trackcatalog/internal/trackapi/db"
	"github.com/tansive/trackcatalog/internal/trackapi/server/middleware"
	"github.com/tansive/trackcatalog/internal/trackapi/trackmanager"
	"github.com/tansive/trackcatalog/pkg/api"
)

const ServerVersion = "Track Catalog Server: 1.0.0"

type TrackServer struct {
	Router   *chi.Mux
	store    db.TrackStore
	registry *prometheus.Registry
	metrics  *commonmiddleware.HTTPMetrics
}

// CreateNewServer builds a server around store. Each server has its own
// metrics registry.
func CreateNewServer(store db.TrackStore) (*TrackServer, error) {
	if store == nil {
		return nil, fmt.Errorf("track store is required")
	}
	s := &TrackServer{
		Router:   chi.NewRouter(),
		store:    store,
		registry: prometheus.NewRegistry(),
		metrics:  commonmiddleware.NewHTTPMetrics("trackcatalog"),
	}
	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.registry.MustRegister(s.metrics.Collectors()...)
	s.registry.MustRegister(trackmanager.Collectors()...)
	return s, nil
}

func (s *TrackServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	if config.Config().HandleCORS {
		s.Router.Use(cors.Handler(cors.Options{
			AllowedOrigins: config.Config().CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
			ExposedHeaders: []string{"Location", commonmiddleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}
	s.Router.Get("/version", s.getVersion)
	s.Router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.Router.Group(s.mountTrackHandlers)
	if logtrace.IsTraceEnabled() {
		fmt.Println("Routes in track router")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			fmt.Printf("Logging err: %s\n", err.Error())
		}
	}
}

func (s *TrackServer) mountTrackHandlers(r chi.Router) {
	r.Use(s.metrics.Metrics("trackapi"))
	r.Use(middleware.LoadStore(s.store))
	r.Use(middleware.AllowWrites(config.Config().WritesAllowed()))
	apis.Router(r)
}

func (s *TrackServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &api.GetVersionRsp{
		ServerVersion: ServerVersion,
		ApiVersion:    api.ApiVersion_1_0,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}
