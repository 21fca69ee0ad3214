package bridge

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = []Params{
	{Scale: 0.25, ZeroPoint: 0},
	{Scale: 0.1, ZeroPoint: -10},
	{Scale: 1.0 / 256.0, ZeroPoint: -128},
	{Scale: 0.037, ZeroPoint: 17},
}

// TestRoundTrip_WithinOneStep tests decode(encode(v)) ≈ v inside the representable range
// TestRoundTrip_WithinOneStep 测试可表示范围内的往返误差不超过一个量化步长
func TestRoundTrip_WithinOneStep(t *testing.T) {
	for _, qp := range testParams {
		lo := float64(QMin-qp.ZeroPoint) * qp.Scale
		hi := float64(QMax-qp.ZeroPoint) * qp.Scale
		for i := 0; i <= 1000; i++ {
			v := lo + (hi-lo)*float64(i)/1000
			q, sat := Quantize(v, qp)
			assert.False(t, sat, "v=%v qp=%v", v, qp)
			assert.LessOrEqual(t, math.Abs(Dequantize(q, qp)-v), qp.Scale, "v=%v qp=%v", v, qp)
		}
	}
}

// TestQuantize_Saturation tests out-of-range values clamp instead of wrapping
// TestQuantize_Saturation 测试越界值被截断而不是回绕
func TestQuantize_Saturation(t *testing.T) {
	qp := Params{Scale: 1, ZeroPoint: 10}

	// 190 / 1 + 10 = 200 before clamping; a wrapping cast would give -56.
	q, sat := Quantize(190, qp)
	assert.Equal(t, int8(127), q)
	assert.True(t, sat)

	q, sat = Quantize(-1000, qp)
	assert.Equal(t, int8(-128), q)
	assert.True(t, sat)

	q, sat = Quantize(math.Inf(1), qp)
	assert.Equal(t, int8(127), q)
	assert.True(t, sat)

	q, sat = Quantize(math.NaN(), qp)
	assert.Equal(t, int8(10), q)
	assert.True(t, sat)
}

// TestQuantize_Rounds tests round-to-nearest rather than truncation
// TestQuantize_Rounds 测试四舍五入而非截断
func TestQuantize_Rounds(t *testing.T) {
	qp := Params{Scale: 1, ZeroPoint: 0}
	q, _ := Quantize(2.6, qp)
	assert.Equal(t, int8(3), q)
	q, _ = Quantize(-2.6, qp)
	assert.Equal(t, int8(-3), q)
	q, _ = Quantize(2.4, qp)
	assert.Equal(t, int8(2), q)
}

func TestEncode(t *testing.T) {
	qp := Params{Scale: 0.25, ZeroPoint: 0}
	features := []float64{26.43, -7.46, 15.90, 57.6, -2.05}

	buf := Encode(features, qp)
	require.Len(t, buf, len(features))
	assert.Equal(t, []int8{106, -30, 64, 127, -8}, buf)

	dst := make([]int8, len(features))
	assert.Equal(t, 1, EncodeInto(dst, features, qp))
	assert.Equal(t, buf, dst)
}

func TestDecode_ClampsProbability(t *testing.T) {
	qp := Params{Scale: 0.01, ZeroPoint: 0}
	buf := []int8{92, -5, 120}

	assert.InDelta(t, 0.92, Decode(buf, qp, 0), 1e-9)
	assert.Equal(t, 0.0, Decode(buf, qp, 1))
	assert.Equal(t, 1.0, Decode(buf, qp, 2))

	// Dequantize itself never clamps.
	assert.InDelta(t, 1.2, Dequantize(120, qp), 1e-9)
	assert.InDelta(t, -0.05, Dequantize(-5, qp), 1e-9)
}

func TestDecode_LogisticOutputParams(t *testing.T) {
	qp := Params{Scale: 1.0 / 256.0, ZeroPoint: -128}
	assert.Equal(t, 0.0, Decode([]int8{-128}, qp, 0))
	assert.InDelta(t, 255.0/256.0, Decode([]int8{127}, qp, 0), 1e-12)
}

// TestDecide_ThresholdBoundary tests the strict inequality
// TestDecide_ThresholdBoundary 测试严格不等式
func TestDecide_ThresholdBoundary(t *testing.T) {
	assert.Equal(t, NoFire, Decide(0.45, 0.45))
	assert.Equal(t, Fire, Decide(0.450001, 0.45))
	assert.Equal(t, NoFire, Decide(0.0, 0.45))
	assert.Equal(t, Fire, Decide(1.0, 0.45))
}

// TestDecide_Monotonic tests classification ordering follows probability ordering
// TestDecide_Monotonic 测试分类顺序与概率顺序一致
func TestDecide_Monotonic(t *testing.T) {
	for _, threshold := range []float64{0.1, 0.45, 0.5, 0.9} {
		prev := NoFire
		for i := 0; i <= 1000; i++ {
			p := float64(i) / 1000
			d := Decide(p, threshold)
			assert.GreaterOrEqual(t, int(d), int(prev), "p=%v threshold=%v", p, threshold)
			prev = d
		}
	}
}

// TestConfidence_AtLeastHalf tests max(p, 1-p) >= 0.5
// TestConfidence_AtLeastHalf 测试置信度不小于 0.5
func TestConfidence_AtLeastHalf(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		p := float64(i) / 1000
		assert.GreaterOrEqual(t, Confidence(p), 0.5)
	}
	assert.InDelta(t, 0.92, Confidence(0.92), 1e-12)
	assert.InDelta(t, 0.92, Confidence(0.08), 1e-12)
}

func TestEvaluate(t *testing.T) {
	v := Evaluate(0.92, 0.45)
	assert.Equal(t, Fire, v.Decision)
	assert.InDelta(t, 0.92, v.Confidence, 1e-12)
	assert.InDelta(t, 0.08, v.NoFireProbability, 1e-12)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"decision":"FIRE"`)

	var back Verdict
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Fire, back.Decision)
}

func TestDecision_UnmarshalText(t *testing.T) {
	var d Decision
	require.NoError(t, d.UnmarshalText([]byte("no_fire")))
	assert.Equal(t, NoFire, d)
	assert.Error(t, d.UnmarshalText([]byte("SMOKE")))
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, Params{Scale: 0.5, ZeroPoint: -128}.Validate())
	assert.Error(t, Params{Scale: 0, ZeroPoint: 0}.Validate())
	assert.Error(t, Params{Scale: math.NaN(), ZeroPoint: 0}.Validate())
	assert.Error(t, Params{Scale: 1, ZeroPoint: 128}.Validate())
}

func TestValidThreshold(t *testing.T) {
	assert.True(t, ValidThreshold(0.45))
	assert.False(t, ValidThreshold(0))
	assert.False(t, ValidThreshold(1))
}
