// Package normalizer standardizes raw sensor readings into the feature space
// the fire model was trained on.
// Package normalizer 将原始传感器读数标准化到模型训练时的特征空间。
package normalizer

import (
	"fmt"
	"math"

	fserrors "github.com/livp123/firesense/pkg/errors"
)

// NumFeatures is the fixed width of every feature vector.
const NumFeatures = 5

// Feature indexes a reading inside a FeatureVector. The order is part of the
// contract with the calibration constants.
// Feature 表示 FeatureVector 中读数的索引，顺序与校准常量绑定。
type Feature int

const (
	Temperature Feature = iota
	Humidity
	CO2
	Hydrogen
	Pressure
)

var featureNames = [NumFeatures]string{"temperature", "humidity", "co2", "hydrogen", "pressure"}
var featureUnits = [NumFeatures]string{"°C", "%", "ppm", "%", "hPa"}

func (f Feature) String() string {
	if f < 0 || int(f) >= NumFeatures {
		return fmt.Sprintf("feature(%d)", int(f))
	}
	return featureNames[f]
}

// Unit returns the physical unit the sensor reports in.
func (f Feature) Unit() string {
	if f < 0 || int(f) >= NumFeatures {
		return ""
	}
	return featureUnits[f]
}

// Features lists all features in vector order.
func Features() []Feature {
	return []Feature{Temperature, Humidity, CO2, Hydrogen, Pressure}
}

// FeatureVector holds one raw reading per feature.
// FeatureVector 保存每个特征的一个原始读数。
type FeatureVector [NumFeatures]float64

// NewFeatureVector builds a vector in the agreed order.
func NewFeatureVector(temperature, humidity, co2, hydrogen, pressure float64) FeatureVector {
	return FeatureVector{temperature, humidity, co2, hydrogen, pressure}
}

// FromSlice converts a slice of exactly NumFeatures values.
// FromSlice 转换长度恰好为 NumFeatures 的切片。
func FromSlice(values []float64) (FeatureVector, error) {
	var v FeatureVector
	if len(values) != NumFeatures {
		return v, fmt.Errorf("%w: expected %d values, got %d", fserrors.ErrInvalidReading, NumFeatures, len(values))
	}
	copy(v[:], values)
	return v, nil
}

// Get returns the reading for a feature.
func (v FeatureVector) Get(f Feature) float64 { return v[f] }

// Finite reports whether every reading is a real number.
func (v FeatureVector) Finite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// StandardizedVector holds (raw - mean) / std per feature. It is unbounded.
// StandardizedVector 保存每个特征的 (raw - mean) / std，无界。
type StandardizedVector [NumFeatures]float64

// Calibration holds the offline StandardScaler constants.
// Calibration 保存离线 StandardScaler 常量。
type Calibration struct {
	Mean [NumFeatures]float64 `json:"mean"`
	Std  [NumFeatures]float64 `json:"std"`
}

// DefaultCalibration returns the constants the reference model was trained with.
// DefaultCalibration 返回参考模型训练时使用的常量。
func DefaultCalibration() Calibration {
	return Calibration{
		Mean: [NumFeatures]float64{24.5, 52.3, 405.0, 0.012, 1010.5},
		Std:  [NumFeatures]float64{2.1, 5.0, 50.0, 0.005, 10.0},
	}
}

// NewCalibration builds and validates calibration constants from config slices.
// NewCalibration 从配置切片构建并验证校准常量。
func NewCalibration(mean, std []float64) (Calibration, error) {
	var c Calibration
	if len(mean) != NumFeatures {
		return c, fserrors.NewConfigError("pipeline.calibration.mean", fmt.Sprintf("%d values, want %d", len(mean), NumFeatures))
	}
	if len(std) != NumFeatures {
		return c, fserrors.NewConfigError("pipeline.calibration.std", fmt.Sprintf("%d values, want %d", len(std), NumFeatures))
	}
	copy(c.Mean[:], mean)
	copy(c.Std[:], std)
	return c, c.Validate()
}

// Validate rejects constants that would make standardization undefined.
// A failure here is a configuration error, never a per-call error.
// Validate 拒绝会导致标准化无定义的常量。
func (c Calibration) Validate() error {
	for _, f := range Features() {
		mean, std := c.Mean[f], c.Std[f]
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			return fserrors.NewCalibrationError(f.String(), "mean must be finite")
		}
		if math.IsNaN(std) || math.IsInf(std, 0) {
			return fserrors.NewCalibrationError(f.String(), "std must be finite")
		}
		if std <= 0 {
			return fserrors.NewCalibrationError(f.String(), fmt.Sprintf("std must be > 0, got %v", std))
		}
	}
	return nil
}

// Standardize maps raw readings into model feature space. It is a pure
// per-feature affine transform with no clamping; params must be validated.
// Standardize 将原始读数映射到模型特征空间，逐特征仿射变换，不做截断。
func Standardize(raw FeatureVector, params Calibration) StandardizedVector {
	var out StandardizedVector
	for i := 0; i < NumFeatures; i++ {
		out[i] = (raw[i] - params.Mean[i]) / params.Std[i]
	}
	return out
}
