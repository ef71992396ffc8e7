package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados de um registro de uso.
const (
	OutcomeCommitted            = "committed"
	OutcomeConfirmationRequired = "confirmation_required"
)

// Metrics agrupa os coletores do serviço em um registry próprio.
type Metrics struct {
	registry *prometheus.Registry

	usage                  *prometheus.CounterVec
	restocks               prometheus.Counter
	orderStatus            *prometheus.CounterVec
	learnedDuration        prometheus.Histogram
	notificationsScheduled prometheus.Counter
	notificationsFired     prometheus.Counter
	eventsPublished        *prometheus.CounterVec
	httpDuration           *prometheus.HistogramVec
}

// New cria e registra todos os coletores.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		usage: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supply_usage_total",
				Help: "Registros de uso por resultado",
			},
			[]string{"outcome"},
		),
		restocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supply_restock_total",
			Help: "Reposições de estoque aplicadas",
		}),
		orderStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supply_order_status_total",
				Help: "Alterações do indicador de pedido",
			},
			[]string{"ordered"},
		),
		learnedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "supply_learned_duration_days",
			Help:    "Duração por unidade após cada uso aceito",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		notificationsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supply_notifications_scheduled_total",
			Help: "Alertas de suprimento agendados",
		}),
		notificationsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supply_notifications_dispatched_total",
			Help: "Alertas vencidos entregues",
		}),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supply_events_published_total",
				Help: "Eventos publicados por destino e resultado",
			},
			[]string{"sink", "result"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Latência das requisições HTTP",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "code"},
		),
	}

	m.registry.MustRegister(
		m.usage, m.restocks, m.orderStatus, m.learnedDuration,
		m.notificationsScheduled, m.notificationsFired, m.eventsPublished, m.httpDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry expõe o registry (usado nos testes).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) UsageRecorded(outcome string) { m.usage.WithLabelValues(outcome).Inc() }

func (m *Metrics) DurationLearned(days float64) { m.learnedDuration.Observe(days) }

func (m *Metrics) Restocked() { m.restocks.Inc() }

func (m *Metrics) OrderStatusChanged(ordered bool) {
	m.orderStatus.WithLabelValues(strconv.FormatBool(ordered)).Inc()
}

func (m *Metrics) NotificationScheduled() { m.notificationsScheduled.Inc() }

func (m *Metrics) NotificationDispatched() { m.notificationsFired.Inc() }

func (m *Metrics) EventPublished(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(sink, result).Inc()
}

// Middleware mede a latência de cada requisição.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap permite ao http.ResponseController chegar ao writer original.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack é necessário para o upgrade WebSocket de /v1/events.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("ResponseWriter não suporta Hijack")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
