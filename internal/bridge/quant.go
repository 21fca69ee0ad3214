// Package bridge converts between real-valued features/probabilities and the
// int8 affine representation used by the inference engine, and applies the
// fire decision rule.
// Package bridge 在实数特征/概率与推理引擎使用的 int8 仿射表示之间转换，并执行火灾判定规则。
package bridge

import (
	"fmt"
	"math"

	fserrors "github.com/livp123/firesense/pkg/errors"
)

const (
	// QMin and QMax bound the int8 tensor domain.
	QMin = math.MinInt8
	QMax = math.MaxInt8
)

// Params is an affine (scale, zero point) mapping between int8 and reals:
// real = (q - ZeroPoint) * Scale.
// Params 是 int8 与实数之间的仿射映射。
type Params struct {
	Scale     float64 `json:"scale" yaml:"scale"`
	ZeroPoint int32   `json:"zero_point" yaml:"zero_point"`
}

func (p Params) String() string {
	return fmt.Sprintf("scale=%g zero_point=%d", p.Scale, p.ZeroPoint)
}

// Validate checks that the mapping is usable for int8 tensors.
// Validate 检查映射是否适用于 int8 张量。
func (p Params) Validate() error {
	if math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) || p.Scale <= 0 {
		return fserrors.NewConfigError("scale", p.Scale)
	}
	if p.ZeroPoint < QMin || p.ZeroPoint > QMax {
		return fserrors.NewConfigError("zero_point", p.ZeroPoint)
	}
	return nil
}

// Quantize maps one real value to int8: round(v / scale) + zero_point,
// saturated to [QMin, QMax] before the narrow cast. The second result
// reports whether saturation happened. NaN maps to the zero point.
// Quantize 将单个实数映射为 int8，在窄化转换前进行饱和截断。
func Quantize(v float64, qp Params) (int8, bool) {
	if math.IsNaN(v) {
		return int8(qp.ZeroPoint), true
	}
	r := math.Round(v/qp.Scale) + float64(qp.ZeroPoint)
	switch {
	case r > QMax:
		return QMax, true
	case r < QMin:
		return QMin, true
	}
	return int8(r), false
}

// EncodeInto quantizes features into dst and returns how many values
// saturated. dst must be at least as long as features.
// EncodeInto 将特征量化到 dst，返回饱和的数量。
func EncodeInto(dst []int8, features []float64, qp Params) int {
	saturated := 0
	for i, v := range features {
		q, sat := Quantize(v, qp)
		dst[i] = q
		if sat {
			saturated++
		}
	}
	return saturated
}

// Encode quantizes a feature slice into a new buffer of the same length.
// Encode 将特征切片量化为等长的新缓冲区。
func Encode(features []float64, qp Params) []int8 {
	out := make([]int8, len(features))
	EncodeInto(out, features, qp)
	return out
}

// Dequantize recovers the approximate real value of q, unclamped.
// Dequantize 恢复 q 的近似实数值，不做截断。
func Dequantize(q int8, qp Params) float64 {
	return float64(int32(q)-qp.ZeroPoint) * qp.Scale
}

// Decode dequantizes buf[index] as a probability, saturated to [0, 1].
// Values outside the range come from rounding error and are not faults.
// Decode 将 buf[index] 反量化为概率并饱和到 [0, 1]。
func Decode(buf []int8, qp Params, index int) float64 {
	return ClampProbability(Dequantize(buf[index], qp))
}

// ClampProbability saturates p to [0, 1].
func ClampProbability(p float64) float64 {
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
