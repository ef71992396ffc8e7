package router

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gosupply/internal/api/supply"
	"gosupply/internal/api/user"
	"gosupply/internal/domain"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/pkg/middleware"

	_ "gosupply/docs" // registra a especificação Swagger
)

// Deps reúne tudo que o roteador precisa, já inicializado.
type Deps struct {
	SupplyHandler *supply.Handler
	UserHandler   *user.Handler
	TokenSvc      middleware.TokenValidator
	Cache         cache.Client
	Events        http.Handler
	Metrics       *metrics.Metrics
	Logger        logger.Logger

	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
	AllowedOrigins       []string
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// --- 1. Health check, métricas e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /metrics", d.Metrics.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// --- 2. Usuários (públicas, com rate limit) ---
	limit := middleware.RateLimiter(d.Cache, d.RateLimitMaxRequests, d.RateLimitPeriod, d.Logger)
	mux.Handle("POST /v1/register", limit(http.HandlerFunc(d.UserHandler.RegisterUserHandler)))
	mux.Handle("POST /v1/login", limit(http.HandlerFunc(d.UserHandler.LoginUserHandler)))

	// --- 3. Itens (autenticadas; mutações exigem papel user ou admin) ---
	auth := middleware.NewAuthMiddleware(d.TokenSvc, d.Logger)
	canWrite := middleware.PermissionMiddleware(d.Logger, domain.RoleAdmin, domain.RoleUser)

	read := func(h http.HandlerFunc) http.Handler { return limit(auth(h)) }
	write := func(h http.HandlerFunc) http.Handler { return limit(auth(canWrite(h))) }

	h := d.SupplyHandler
	mux.Handle("POST /v1/items", write(h.CreateItemHandler))
	mux.Handle("GET /v1/items", read(h.ListItemsHandler))
	mux.Handle("GET /v1/items/{id}", read(h.GetItemHandler))
	mux.Handle("PUT /v1/items/{id}", write(h.UpdateItemHandler))
	mux.Handle("DELETE /v1/items/{id}", write(h.DeleteItemHandler))
	mux.Handle("POST /v1/items/{id}/use", write(h.UseItemHandler))
	mux.Handle("POST /v1/items/{id}/stock-up", write(h.StockUpHandler))
	mux.Handle("PUT /v1/items/{id}/order-status", write(h.SetOrderStatusHandler))
	mux.Handle("GET /v1/widget", read(h.WidgetHandler))
	mux.Handle("GET /v1/notifications", read(h.NotificationsHandler))

	// --- 4. Eventos em tempo real (WebSocket) ---
	if d.Events != nil {
		mux.Handle("GET /v1/events", d.Events)
	}

	// --- 5. Middlewares globais ---
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return d.Metrics.Middleware(corsHandler.Handler(mux))
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
