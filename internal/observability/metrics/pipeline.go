package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

// PipelineMetrics implements ports.PipelineObserver.
type PipelineMetrics struct {
	service string

	embeddingsTotal  *prometheus.CounterVec
	answersTotal     *prometheus.CounterVec
	answerSources    *prometheus.HistogramVec
	answerDuration   *prometheus.HistogramVec
	documentsTotal   *prometheus.CounterVec
	indexedChunks    *prometheus.HistogramVec
	documentDuration *prometheus.HistogramVec
}

func NewPipelineMetrics(registerer prometheus.Registerer, service string) *PipelineMetrics {
	embeddingsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Chunk embedding outcomes by status.",
		},
		[]string{"service", "status"},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "answers_total",
			Help:      "Answered questions by query kind and cache use.",
		},
		[]string{"service", "kind", "cached"},
	)
	answerSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "source_sections",
			Help:      "Distribution of source sections per answer.",
			Buckets:   []float64{0, 1, 2, 3},
		},
		[]string{"service", "kind"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "answer_duration_seconds",
			Help:      "Per-question answer latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind"},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "index_total",
			Help:      "Indexed documents by status.",
		},
		[]string{"service", "status"},
	)
	indexedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "indexed_chunks",
			Help:      "Distribution of indexed chunks per document.",
			Buckets:   []float64{0, 5, 10, 20, 30, 40, 50},
		},
		[]string{"service"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "index_duration_seconds",
			Help:      "Embedding and indexing duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "status"},
	)

	registerer.MustRegister(
		embeddingsTotal,
		answersTotal,
		answerSources,
		answerDuration,
		documentsTotal,
		indexedChunks,
		documentDuration,
	)

	return &PipelineMetrics{
		service:          service,
		embeddingsTotal:  embeddingsTotal,
		answersTotal:     answersTotal,
		answerSources:    answerSources,
		answerDuration:   answerDuration,
		documentsTotal:   documentsTotal,
		indexedChunks:    indexedChunks,
		documentDuration: documentDuration,
	}
}

func (m *PipelineMetrics) ObserveEmbeddings(succeeded, failed int) {
	if succeeded > 0 {
		m.embeddingsTotal.WithLabelValues(m.service, "success").Add(float64(succeeded))
	}
	if failed > 0 {
		m.embeddingsTotal.WithLabelValues(m.service, "error").Add(float64(failed))
	}
}

func (m *PipelineMetrics) ObserveAnswer(kind domain.QueryKind, sources int, cached bool, durationSeconds float64) {
	k := string(kind)
	if k == "" {
		k = "unknown"
	}
	m.answersTotal.WithLabelValues(m.service, k, strconv.FormatBool(cached)).Inc()
	m.answerSources.WithLabelValues(m.service, k).Observe(float64(sources))
	m.answerDuration.WithLabelValues(m.service, k).Observe(durationSeconds)
}

func (m *PipelineMetrics) ObserveDocument(status string, chunks int, durationSeconds float64) {
	if status == "" {
		status = "unknown"
	}
	m.documentsTotal.WithLabelValues(m.service, status).Inc()
	m.indexedChunks.WithLabelValues(m.service).Observe(float64(chunks))
	m.documentDuration.WithLabelValues(m.service, status).Observe(durationSeconds)
}

// PrefetchMetrics tracks prefetch requests consumed from the message bus.
type PrefetchMetrics struct {
	service string

	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func NewPrefetchMetrics(registerer prometheus.Registerer, service string) *PrefetchMetrics {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prefetch",
			Name:      "requests_total",
			Help:      "Processed prefetch requests by status.",
		},
		[]string{"service", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prefetch",
			Name:      "duration_seconds",
			Help:      "Prefetch duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "prefetch",
			Name:      "in_flight",
			Help:      "Number of in-flight prefetch requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	registerer.MustRegister(total, duration, inFlight)

	return &PrefetchMetrics{service: service, total: total, duration: duration, inFlight: inFlight}
}

func (m *PrefetchMetrics) Start() {
	m.inFlight.Inc()
}

func (m *PrefetchMetrics) Finish(duration time.Duration, err error) {
	m.inFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.total.WithLabelValues(m.service, status).Inc()
	m.duration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}
