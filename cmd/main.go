package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/portops/PGC-BookingService/internal/api/handlers/cancel_booking"
	consumeBookingHandler "github.com/portops/PGC-BookingService/internal/api/handlers/consume_booking"
	createBookingHandler "github.com/portops/PGC-BookingService/internal/api/handlers/create_booking"
	decideBookingHandler "github.com/portops/PGC-BookingService/internal/api/handlers/decide_booking"
	getAvailableSlotsHandler "github.com/portops/PGC-BookingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/portops/PGC-BookingService/internal/api/handlers/get_booking"
	healthHandler "github.com/portops/PGC-BookingService/internal/api/handlers/health"
	listBookingsHandler "github.com/portops/PGC-BookingService/internal/api/handlers/list_bookings"
	"github.com/portops/PGC-BookingService/internal/api/middleware"
	"github.com/portops/PGC-BookingService/internal/config"
	"github.com/portops/PGC-BookingService/internal/infra/notify"
	bookingRepo "github.com/portops/PGC-BookingService/internal/infra/storage/booking"
	fleetRepo "github.com/portops/PGC-BookingService/internal/infra/storage/fleet"
	reminderRepo "github.com/portops/PGC-BookingService/internal/infra/storage/reminder"
	slotRepo "github.com/portops/PGC-BookingService/internal/infra/storage/slot"
	terminalRepo "github.com/portops/PGC-BookingService/internal/infra/storage/terminalcfg"
	auditServiceClient "github.com/portops/PGC-BookingService/internal/integrations/auditservice"
	identityServiceClient "github.com/portops/PGC-BookingService/internal/integrations/identityservice"
	bookingsService "github.com/portops/PGC-BookingService/internal/service/bookings"
	sweeperService "github.com/portops/PGC-BookingService/internal/service/sweeper"
	createBookingUC "github.com/portops/PGC-BookingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/portops/PGC-BookingService/internal/usecase/get_available_slots"
	"github.com/portops/PGC-BookingService/pkg/dbmetrics"
	"github.com/portops/PGC-BookingService/pkg/logger"
	"github.com/portops/PGC-BookingService/pkg/metrics"
	"github.com/portops/PGC-BookingService/pkg/simpletxmanager"
	"github.com/portops/PGC-BookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting PGC-BookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	identityClient := identityServiceClient.NewClient(
		cfg.IdentityService.URL,
		time.Duration(cfg.IdentityService.Timeout)*time.Second,
		log,
	)
	auditClient := auditServiceClient.NewClient(
		cfg.AuditService.URL,
		time.Duration(cfg.AuditService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (IdentityService=%s timeout=%ds, AuditService=%s timeout=%ds)",
		cfg.IdentityService.URL, cfg.IdentityService.Timeout, cfg.AuditService.URL, cfg.AuditService.Timeout)

	// Инициализируем издателя уведомлений
	var publisher *notify.Publisher
	var notifier *notify.Dispatcher
	if cfg.RabbitMQ.Enabled {
		publisher, err = notify.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		notifier = notify.NewDispatcher(publisher, log)
		log.Info("Notification publisher connected (exchange=%s)", cfg.RabbitMQ.Exchange)
	} else {
		notifier = notify.NewDispatcher(nil, log)
		log.Info("Notifications disabled")
	}

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository  *bookingRepo.Repository
		slotRepository     *slotRepo.Repository
		fleetRepository    *fleetRepo.Repository
		terminalRepository *terminalRepo.Repository
		reminderRepository *reminderRepo.Repository
	)

	// Интерфейс transaction manager (используется в usecases и сервисах)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		slotRepository = slotRepo.NewRepository(wrappedDB)
		fleetRepository = fleetRepo.NewRepository(wrappedDB)
		terminalRepository = terminalRepo.NewRepository(wrappedDB)
		reminderRepository = reminderRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		slotRepository = slotRepo.NewRepository(db)
		fleetRepository = fleetRepo.NewRepository(db)
		terminalRepository = terminalRepo.NewRepository(db)
		reminderRepository = reminderRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		slotRepository,
		fleetRepository,
		terminalRepository,
		identityClient,
		txMgr,
		notifier,
		auditClient,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		slotRepository,
		fleetRepository,
		terminalRepository,
		txMgr,
		notifier,
		auditClient,
		metricsCollector,
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		slotRepository,
		terminalRepository,
		log,
	)

	// Запускаем фоновый свипер жизненного цикла бронирований
	sweeper := sweeperService.NewSweeper(
		bookingRepository,
		slotRepository,
		fleetRepository,
		terminalRepository,
		reminderRepository,
		txMgr,
		notifier,
		metricsCollector,
		log,
		sweeperService.Config{
			Interval:        time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second,
			BatchLimit:      uint64(cfg.Sweeper.BatchLimit),
			ReminderHorizon: time.Duration(cfg.Sweeper.ReminderHorizonHours) * time.Hour,
		},
	)

	stopSweeperCh := make(chan struct{})
	go sweeper.Run(context.Background(), stopSweeperCh)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	decideBooking := decideBookingHandler.NewHandler(bookingSvc, log)
	consumeBooking := consumeBookingHandler.NewHandler(bookingSvc, log)
	health := healthHandler.NewHandler(db)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Health endpoint
	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Каталог доступных слотов терминала
	api.HandleFunc("/terminals/{terminalId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Список бронирований по фильтру
	protected.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)

	// Получение бронирования по ID либо номеру
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// --- Операции оператора терминала ---
	// Решение по pending-бронированию (confirm/reject)
	protected.HandleFunc("/bookings/{bookingId}/decide", decideBooking.Handle).Methods(http.MethodPatch)

	// Отметка фактического проезда через ворота
	protected.HandleFunc("/bookings/{bookingId}/consume", consumeBooking.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем свипер
	close(stopSweeperCh)
	log.Info("Sweeper stopped")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
