package metrics

import (
	"strconv"

	"github.com/livp123/firesense/internal/bridge"
	"github.com/livp123/firesense/internal/pipeline"
	fserrors "github.com/livp123/firesense/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultFire        = "fire"
	ResultNoFire      = "no_fire"
	ResultInvokeError = "invoke_error"
	ResultInputError  = "input_error"
)

var (
	// Cycle metrics
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firesense_cycles_total",
			Help: "Inference cycles by outcome",
		},
		[]string{"result"},
	)
	InvokeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "firesense_invoke_failures_total",
			Help: "Engine invocations that reported failure, retries included",
		},
	)
	FireProbability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "firesense_fire_probability",
			Help: "Fire probability of the last successful cycle",
		},
	)
	Confidence = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "firesense_confidence",
			Help: "Confidence of the last successful cycle",
		},
	)
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "firesense_inference_duration_seconds",
			Help:    "Wall time of one inference cycle",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	// Numeric saturation is silent in the pipeline; it is only counted here.
	SaturationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firesense_saturations_total",
			Help: "Values clamped to the representable range",
		},
		[]string{"stage"},
	)

	// Alert and sink metrics
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firesense_alerts_total",
			Help: "Alert rule matches",
		},
		[]string{"rule"},
	)
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firesense_sink_errors_total",
			Help: "Failed report publications",
		},
		[]string{"sink"},
	)

	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "firesense_model_info",
			Help: "Loaded model, value is always 1",
		},
		[]string{"schema", "inputs", "outputs"},
	)
)

// ObserveCycle records the outcome of one Infer call.
// ObserveCycle 记录一次 Infer 调用的结果。
func ObserveCycle(res *pipeline.Result, err error) {
	if res != nil {
		InferenceDuration.Observe(res.Duration.Seconds())
		if res.Saturated > 0 {
			SaturationsTotal.WithLabelValues("encode").Add(float64(res.Saturated))
		}
		failed := res.Attempts - 1
		if err != nil && fserrors.IsInvocation(err) {
			failed = res.Attempts
		}
		if failed > 0 {
			InvokeFailuresTotal.Add(float64(failed))
		}
	}

	switch {
	case err != nil && fserrors.IsInvocation(err):
		CyclesTotal.WithLabelValues(ResultInvokeError).Inc()
		return
	case err != nil:
		CyclesTotal.WithLabelValues(ResultInputError).Inc()
		return
	}

	if res.Clamped {
		SaturationsTotal.WithLabelValues("decode").Inc()
	}
	FireProbability.Set(res.Verdict.Probability)
	Confidence.Set(res.Verdict.Confidence)
	if res.Verdict.Decision == bridge.Fire {
		CyclesTotal.WithLabelValues(ResultFire).Inc()
	} else {
		CyclesTotal.WithLabelValues(ResultNoFire).Inc()
	}
}

// RecordAlert counts a rule match.
func RecordAlert(rule string) {
	AlertsTotal.WithLabelValues(rule).Inc()
}

// RecordSinkError counts a failed publication.
func RecordSinkError(sink string) {
	SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// SetModelInfo publishes the loaded model shape.
// SetModelInfo 发布已加载模型的形状。
func SetModelInfo(schema uint8, inputs, outputs int) {
	ModelInfo.Reset()
	ModelInfo.WithLabelValues(strconv.Itoa(int(schema)), strconv.Itoa(inputs), strconv.Itoa(outputs)).Set(1)
}
