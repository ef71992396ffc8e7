package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gosupply/config"
	"gosupply/internal/api/router"
	"gosupply/internal/api/supply"
	"gosupply/internal/api/user"
	"gosupply/internal/depletion"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/database"
	"gosupply/internal/pkg/events"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/pkg/token"
	"gosupply/internal/repository/memstore"
	"gosupply/internal/repository/notificationrepo"
	"gosupply/internal/repository/supplyrepo"
	"gosupply/internal/repository/userrepo"
	"gosupply/internal/service/notifyservice"
	"gosupply/internal/service/supplyservice"
	"gosupply/internal/service/userservice"
	"gosupply/internal/service/widgetservice"
)

// storage reúne os repositórios do driver escolhido.
type storage struct {
	items         supplyservice.Repository
	notifications notifyservice.Store
	users         userservice.Repository
	cache         cache.Client
	close         func()
}

func main() {
	log.Println("⚡ Inicializando serviço GoSupply...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuração inválida: %v", err)
	}
	appLog := logger.New(os.Stdout, cfg.Environment, cfg.LogLevel)
	appLog.Info("Configurações carregadas.", map[string]interface{}{
		"storage": cfg.StorageDriver, "timezone": cfg.Location.String(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Infraestrutura
	store, err := openStorage(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Falha ao inicializar o armazenamento.", err)
	}
	defer store.close()

	m := metrics.New()
	estimator := depletion.NewEstimator(cfg.Location)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// 2. Eventos: WebSocket sempre, Kafka quando configurado
	hub := events.NewHub(cfg.CORSAllowedOrigins, appLog)
	fanout := events.NewFanout(m, appLog)
	fanout.Add("websocket", hub)
	if len(cfg.KafkaBrokers) > 0 {
		fanout.Add("kafka", events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic))
		appLog.Info("Publicação de eventos no Kafka habilitada.", map[string]interface{}{"topic": cfg.KafkaTopic})
	}
	defer fanout.Close()

	// 3. Serviços (Repository -> Service -> Handler)
	scheduler := notifyservice.NewScheduler(store.notifications, estimator, cfg.DefaultNotifyDays, m, appLog)
	dispatcher := notifyservice.NewDispatcher(store.notifications, fanout, cfg.NotifyPollInterval, m, appLog)
	widget := widgetservice.NewService(store.items, store.cache, estimator, cfg.WidgetTopN, appLog)

	supplySvc := supplyservice.NewService(store.items, estimator, appLog,
		supplyservice.WithScheduler(scheduler),
		supplyservice.WithPublisher(fanout),
		supplyservice.WithWidget(widget),
		supplyservice.WithRecorder(m),
	)
	userSvc := userservice.NewService(store.users, tokenSvc, appLog)

	handler := router.NewRouter(router.Deps{
		SupplyHandler:        supply.NewHandler(supplySvc, widget, scheduler, appLog),
		UserHandler:          user.NewHandler(userSvc, appLog),
		TokenSvc:             tokenSvc,
		Cache:                store.cache,
		Events:               hub,
		Metrics:              m,
		Logger:               appLog,
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitPeriod:      cfg.RateLimitPeriod,
		AllowedOrigins:       cfg.CORSAllowedOrigins,
	})

	// 4. Workers
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		dispatcher.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		widget.Run(ctx, cfg.WidgetRefreshInterval)
	}()
	if err := widget.Refresh(ctx); err != nil {
		appLog.Warn("Falha ao gerar o snapshot inicial do widget.", map[string]interface{}{"error": err.Error()})
	}

	// 5. Servidor HTTP
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLog.Info("Servidor GoSupply ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	// 6. Graceful shutdown
	<-ctx.Done()
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}
	workers.Wait()

	appLog.Info("Servidor encerrado com sucesso.", nil)
}

// openStorage conecta PostgreSQL + Redis, ou monta o armazenamento em memória.
func openStorage(ctx context.Context, cfg *config.Config, appLog logger.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		st := memstore.New()
		appLog.Warn("Armazenamento em memória: os dados se perdem ao reiniciar.", nil)
		return &storage{
			items:         st.Items(),
			notifications: st.Notifications(),
			users:         st.Users(),
			cache:         cache.NewMemoryClient(),
			close:         func() { _ = st.Close() },
		}, nil
	}

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		db.Close()
		return nil, err
	}
	appLog.Info("Conexão Redis estabelecida.", nil)

	return &storage{
		items:         supplyrepo.NewSupplyRepository(db, redisClient, cfg.DBTimeout, cfg.CacheTTL, appLog),
		notifications: notificationrepo.NewNotificationRepository(db, cfg.DBTimeout, appLog),
		users:         userrepo.NewUserRepository(db, cfg.DBTimeout, appLog),
		cache:         redisClient,
		close: func() {
			_ = redisClient.Close()
			_ = db.Close()
		},
	}, nil
}
