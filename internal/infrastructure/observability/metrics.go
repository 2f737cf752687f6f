// Package observability reúne as métricas Prometheus da aplicação em um
// registro próprio, exposto em /metrics. Os serviços não conhecem
// métricas: a instrumentação acontece nas bordas, por decoradores
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa as métricas da aplicação. O registro é próprio para
// permitir mais de uma instância nos testes sem colisão de coletores
type Metrics struct {
	registry *prometheus.Registry

	httpDuration     *prometheus.HistogramVec
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	modelRequests    *prometheus.CounterVec
	modelDuration    prometheus.Histogram
	emissions        *prometheus.CounterVec
}

// NewMetrics cria o registro e registra as métricas da aplicação
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nfse_http_request_duration_seconds",
				Help:    "Duração das requisições HTTP por rota.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfse_provider_requests_total",
				Help: "Chamadas ao provedor fiscal por operação e resultado.",
			},
			[]string{"operation", "outcome"},
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nfse_provider_request_duration_seconds",
				Help:    "Duração das chamadas ao provedor fiscal.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		modelRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfse_model_requests_total",
				Help: "Consultas ao modelo de linguagem por resultado.",
			},
			[]string{"outcome"},
		),
		modelDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nfse_model_request_duration_seconds",
				Help:    "Duração das consultas ao modelo de linguagem.",
				Buckets: prometheus.DefBuckets,
			},
		),
		emissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfse_invoice_emissions_total",
				Help: "Notas enviadas para emissão por resultado.",
			},
			[]string{"outcome"},
		),
	}
}

// Handler expõe o registro no formato de texto do Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware observa a duração das requisições HTTP. O rótulo usa o
// template da rota, não o caminho bruto, para manter a cardinalidade baixa
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "rota_desconhecida"
		}

		m.httpDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// ObserveProvider registra uma chamada ao provedor fiscal
func (m *Metrics) ObserveProvider(operation, outcome string, d time.Duration) {
	m.providerRequests.WithLabelValues(operation, outcome).Inc()
	m.providerDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveModel registra uma consulta ao modelo de linguagem
func (m *Metrics) ObserveModel(outcome string, d time.Duration) {
	m.modelRequests.WithLabelValues(outcome).Inc()
	m.modelDuration.Observe(d.Seconds())
}

// IncrEmission registra o resultado de um envio de nota ao provedor
func (m *Metrics) IncrEmission(outcome string) {
	m.emissions.WithLabelValues(outcome).Inc()
}
