// Package report turns pipeline results into records for sinks, the API and
// the console.
// Package report 将流水线结果转换为供输出端、API 和控制台使用的记录。
package report

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/livp123/firesense/internal/normalizer"
	"github.com/livp123/firesense/internal/pipeline"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// Readings is the named form of a FeatureVector.
// Readings 是 FeatureVector 的具名形式。
type Readings struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Humidity    float64 `json:"humidity" yaml:"humidity"`
	CO2         float64 `json:"co2" yaml:"co2"`
	Hydrogen    float64 `json:"hydrogen" yaml:"hydrogen"`
	Pressure    float64 `json:"pressure" yaml:"pressure"`
}

// ReadingsFrom names the entries of a vector.
func ReadingsFrom(v [normalizer.NumFeatures]float64) Readings {
	return Readings{
		Temperature: v[normalizer.Temperature],
		Humidity:    v[normalizer.Humidity],
		CO2:         v[normalizer.CO2],
		Hydrogen:    v[normalizer.Hydrogen],
		Pressure:    v[normalizer.Pressure],
	}
}

// MarshalJSON writes non-finite values as null. Extreme raw readings can
// standardize to ±Inf, which encoding/json rejects.
// MarshalJSON 将非有限值写为 null。
func (r Readings) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		CO2         *float64 `json:"co2"`
		Hydrogen    *float64 `json:"hydrogen"`
		Pressure    *float64 `json:"pressure"`
	}{
		finite(r.Temperature), finite(r.Humidity), finite(r.CO2), finite(r.Hydrogen), finite(r.Pressure),
	})
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Vector converts the readings back to pipeline order.
func (r Readings) Vector() normalizer.FeatureVector {
	return normalizer.NewFeatureVector(r.Temperature, r.Humidity, r.CO2, r.Hydrogen, r.Pressure)
}

// Report is one inference cycle as published to the outside world.
// Report 是对外发布的单个推理周期记录。
type Report struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	Label             string    `json:"label"`
	Readings          Readings  `json:"readings"`
	Standardized      Readings  `json:"standardized"`
	Quantized         []int8    `json:"quantized,omitempty"`
	Output            []int8    `json:"output,omitempty"`
	Probability       float64   `json:"probability"`
	NoFireProbability float64   `json:"no_fire_probability"`
	Confidence        float64   `json:"confidence"`
	Decision          string    `json:"decision,omitempty"`
	Fire              bool      `json:"fire"`
	Saturated         int       `json:"saturated,omitempty"`
	Clamped           bool      `json:"clamped,omitempty"`
	Attempts          int       `json:"attempts,omitempty"`
	DurationMS        float64   `json:"duration_ms"`
	Alerts            []string  `json:"alerts,omitempty"`
	Error             string    `json:"error,omitempty"`
	InvokeFailed      bool      `json:"invoke_failed,omitempty"`
}

// New builds a report from a cycle result and the error Infer returned.
// New 根据周期结果和 Infer 返回的错误构建报告。
func New(label string, res *pipeline.Result, err error) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Label:     label,
	}
	if res != nil {
		r.Readings = ReadingsFrom(res.Raw)
		r.Standardized = ReadingsFrom(res.Standardized)
		r.Quantized = res.Quantized
		r.Saturated = res.Saturated
		r.Attempts = res.Attempts
		r.DurationMS = float64(res.Duration.Microseconds()) / 1000
	}
	if err != nil {
		r.Error = err.Error()
		r.InvokeFailed = fserrors.IsInvocation(err)
		return r
	}
	if res.OK() {
		r.Output = res.Output
		r.Probability = res.Verdict.Probability
		r.NoFireProbability = res.Verdict.NoFireProbability
		r.Confidence = res.Verdict.Confidence
		r.Decision = res.Verdict.Decision.String()
		r.Fire = r.Decision == "FIRE"
		r.Clamped = res.Clamped
	}
	return r
}

// OK reports whether the cycle produced a decision.
func (r *Report) OK() bool { return r.Error == "" && r.Decision != "" }
