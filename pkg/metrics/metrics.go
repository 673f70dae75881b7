package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus-метрик сервиса
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec
	DBPoolOpenConns *prometheus.GaugeVec
	DBPoolInUse     *prometheus.GaugeVec
	DBPoolIdle      *prometheus.GaugeVec

	// Бизнес-метрики бронирований
	BookingsCreatedTotal  *prometheus.CounterVec
	BookingsSlotFullTotal *prometheus.CounterVec
	BookingsExpiredTotal  *prometheus.CounterVec
	BookingsNoShowTotal   *prometheus.CounterVec
	RemindersEmittedTotal *prometheus.CounterVec
}

// New создает и регистрирует метрики в default registry
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBQueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries",
			ConstLabels: constLabels,
		}, []string{"operation", "status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		DBPoolOpenConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_open_connections",
			Help:        "Number of open connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBPoolInUse: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBPoolIdle: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_idle_connections",
			Help:        "Number of idle connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),

		BookingsCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_created_total",
			Help:        "Total number of created bookings by resulting status",
			ConstLabels: constLabels,
		}, []string{"status"}),

		BookingsSlotFullTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_slot_full_total",
			Help:        "Total number of booking attempts rejected due to full slot",
			ConstLabels: constLabels,
		}, []string{"terminal"}),

		BookingsExpiredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_expired_total",
			Help:        "Total number of bookings expired by the sweeper",
			ConstLabels: constLabels,
		}, []string{"terminal"}),

		BookingsNoShowTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_no_show_total",
			Help:        "Total number of bookings marked no-show by the sweeper",
			ConstLabels: constLabels,
		}, []string{"terminal"}),

		RemindersEmittedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_reminders_emitted_total",
			Help:        "Total number of reminder notifications emitted",
			ConstLabels: constLabels,
		}, []string{"offset_hours"}),
	}
}
