package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/yedis-go/internal/server/httpserver/handler"
	"github.com/yndnr/yedis-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Storage backs /ready, the status summary and GC.
	Storage handler.Storage

	// Connections reports open Redis connections. Optional.
	Connections handler.ConnCounter

	// Metrics serves /metrics. Optional.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// AdminAllowList is the IP/CIDR allowlist for /admin (empty = no restriction).
	AdminAllowList []string
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := handler.New(cfg.Storage, cfg.Connections, log)

	mux := http.NewServeMux()

	// Health and version endpoints: no access logging, polled frequently.
	mux.Handle("/", Chain(h, RequestID(), Recover(log)))

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), RequestID(), Recover(log)))
	}

	mux.Handle("/admin/", Chain(h,
		RequestID(),
		Recover(log),
		AccessLog(log),
		NetworkACL(&NetworkACLConfig{AllowList: cfg.AdminAllowList, Logger: log}),
	))

	return mux
}
