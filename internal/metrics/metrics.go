// Package metrics agrupa las métricas Prometheus del servicio.
// Viven en un paquete aparte para evitar ciclos entre gate, simswap, challenge y http.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "simguard"

var (
	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Número total de requests procesadas",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latencia de los requests HTTP",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_inflight_requests",
		Help:      "Requests en vuelo",
	})

	// Gate
	GateDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Decisiones del gate por tipo y tier",
	}, []string{"decision", "tier"})

	GateDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_degraded_authorizations_total",
		Help:      "Pagos autorizados sin chequeo de riesgo (oracle caído, monto bajo el umbral)",
	})

	// Oracle
	OracleRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "oracle_requests_total",
		Help:      "Consultas al oracle de SIM swap por operación y resultado",
	}, []string{"provider", "op", "result"}) // result: ok|invalid|unavailable

	OracleLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "oracle_request_duration_seconds",
		Help:      "Latencia de las consultas al proveedor telecom",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 4, 5},
	}, []string{"provider", "op"})

	// Challenges
	ChallengesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "challenges_created_total",
		Help:      "Challenges creados por método y tier",
	}, []string{"method", "tier"})

	ChallengeValidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "challenge_validations_total",
		Help:      "Validaciones de challenge por resultado",
	}, []string{"result"}) // verified|mismatch|failed|expired|terminal|not_found

	ChallengesSwept = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "challenges_swept_total",
		Help:      "Challenges expirados o purgados por el sweep",
	}, []string{"action"}) // expired|purged

	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Entregas de códigos por canal y resultado",
	}, []string{"channel", "result"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal, HTTPRequestDuration, HTTPInflight,
		GateDecisions, GateDegraded,
		OracleRequests, OracleLatency,
		ChallengesCreated, ChallengeValidations, ChallengesSwept,
		NotificationsSent,
	}
}

// Config agrupa dependencias opcionales para /metrics.
type Config struct {
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	// Pool, si no es nil, expone gauges del pool de Postgres.
	Pool func() *pgxpool.Pool
}

// Register registra todas las métricas y devuelve el handler para /metrics.
func Register(cfg Config) (http.Handler, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	if cfg.Pool != nil {
		if err := registerCollector(reg, newPoolCollector(cfg.Pool)); err != nil {
			return nil, err
		}
	}
	if cfg.Gatherer != nil {
		return promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ObserveHTTP registra un request terminado.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveOracle registra una consulta al proveedor.
func ObserveOracle(provider, op, result string, d time.Duration) {
	OracleRequests.WithLabelValues(provider, op, result).Inc()
	OracleLatency.WithLabelValues(provider, op).Observe(d.Seconds())
}

// poolCollector expone gauges del pool global de Postgres.
type poolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(pool func() *pgxpool.Pool) *poolCollector {
	return &poolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc(namespace+"_pg_acquired_conns", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc(namespace+"_pg_idle_conns", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc(namespace+"_pg_total_conns", "Conexiones totales", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	p := c.pool()
	if p == nil {
		return
	}
	stat := p.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
