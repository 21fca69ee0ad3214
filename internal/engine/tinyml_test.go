package engine

import (
	"context"
	"testing"

	"github.com/livp123/firesense/internal/bridge"
	"github.com/livp123/firesense/internal/model"
	"github.com/livp123/firesense/internal/normalizer"
	fserrors "github.com/livp123/firesense/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadReference(t *testing.T) (*TinyMLEngine, bridge.Params, bridge.Params) {
	t.Helper()
	e := NewTinyMLEngine()
	h, err := e.LoadModel(model.ReferenceBytes())
	require.NoError(t, err)
	in, out, err := e.Allocate(h, DefaultArenaSize)
	require.NoError(t, err)
	return e, in, out
}

// TestNewTinyMLEngine tests NewTinyMLEngine function
// TestNewTinyMLEngine 测试 NewTinyMLEngine 函数
func TestNewTinyMLEngine(t *testing.T) {
	e := NewTinyMLEngine()
	assert.NotNil(t, e)
	assert.Equal(t, 0, e.ArenaUsed())
	assert.False(t, e.OutputValid())
}

// TestTinyMLEngine_LoadAllocate tests the reference model quantization params
// TestTinyMLEngine_LoadAllocate 测试参考模型的量化参数
func TestTinyMLEngine_LoadAllocate(t *testing.T) {
	e, in, out := loadReference(t)
	assert.Equal(t, model.ReferenceInput, in)
	assert.Equal(t, model.ReferenceOutput, out)
	assert.Equal(t, model.RequiredArena(model.Reference()), e.ArenaUsed())
}

// TestTinyMLEngine_SchemaMismatch tests a wrong schema is rejected at load
// TestTinyMLEngine_SchemaMismatch 测试加载时拒绝错误的 schema
func TestTinyMLEngine_SchemaMismatch(t *testing.T) {
	data := model.ReferenceBytes()
	data[4] = 4

	_, err := NewTinyMLEngine().LoadModel(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, fserrors.ErrSchemaMismatch)
	assert.True(t, fserrors.IsConfiguration(err))
}

// TestTinyMLEngine_AllocationFailed tests an undersized arena
// TestTinyMLEngine_AllocationFailed 测试 arena 过小
func TestTinyMLEngine_AllocationFailed(t *testing.T) {
	e := NewTinyMLEngine()
	h, err := e.LoadModel(model.ReferenceBytes())
	require.NoError(t, err)

	_, _, err = e.Allocate(h, 16)
	require.Error(t, err)
	assert.ErrorIs(t, err, fserrors.ErrAllocationFailed)
	assert.True(t, fserrors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "need 24 bytes, arena has 16")

	_, _, err = e.Allocate(mockHandle{schema: model.SchemaVersion, in: 5, out: 1}, DefaultArenaSize)
	assert.ErrorIs(t, err, fserrors.ErrInvalidModel)
}

// TestTinyMLEngine_InvokeErrors tests per-cycle failures
// TestTinyMLEngine_InvokeErrors 测试单周期失败
func TestTinyMLEngine_InvokeErrors(t *testing.T) {
	e := NewTinyMLEngine()
	_, err := e.Invoke(context.Background(), make([]int8, 5))
	assert.True(t, fserrors.IsInvocation(err))
	assert.ErrorIs(t, err, fserrors.ErrNotAllocated)

	e, _, _ = loadReference(t)
	out, err := e.Invoke(context.Background(), make([]int8, 4))
	assert.True(t, fserrors.IsInvocation(err))
	assert.Nil(t, out)
	assert.False(t, e.OutputValid())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Invoke(ctx, make([]int8, 5))
	assert.True(t, fserrors.IsInvocation(err))
	assert.ErrorIs(t, err, context.Canceled)
}

// TestTinyMLEngine_Dense tests hand-computed integer arithmetic
// TestTinyMLEngine_Dense 测试手工计算的整数运算
func TestTinyMLEngine_Dense(t *testing.T) {
	build := func(act model.Activation, inZP int32) []byte {
		m := &model.Model{
			Version:  model.SchemaVersion,
			InputDim: 2,
			Input:    bridge.Params{Scale: 1, ZeroPoint: inZP},
			Layers: []model.Layer{{
				In: 2, Out: 1, Activation: act,
				Weights: bridge.Params{Scale: 0.5, ZeroPoint: 0},
				Output:  bridge.Params{Scale: 1, ZeroPoint: 0},
				W:       []int8{2, -4},
				Bias:    []int32{4},
			}},
		}
		data, err := model.Marshal(m)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name  string
		act   model.Activation
		inZP  int32
		input []int8
		want  int8
	}{
		{"linear", model.ActivationNone, 0, []int8{3, 1}, 3},
		{"input zero point", model.ActivationNone, 10, []int8{13, 11}, 3},
		{"saturates high", model.ActivationNone, 0, []int8{127, -128}, 127},
		{"saturates low", model.ActivationNone, 0, []int8{-128, 127}, -128},
		{"relu clips negative", model.ActivationReLU, 0, []int8{0, 5}, 0},
		{"relu keeps positive", model.ActivationReLU, 0, []int8{3, 1}, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewTinyMLEngine()
			h, err := e.LoadModel(build(tc.act, tc.inZP))
			require.NoError(t, err)
			_, _, err = e.Allocate(h, 64)
			require.NoError(t, err)

			out, err := e.Invoke(context.Background(), tc.input)
			require.NoError(t, err)
			assert.Equal(t, []int8{tc.want}, out)
			assert.True(t, e.OutputValid())
		})
	}
}

// TestTinyMLEngine_ReferenceScenarios tests the bundled model separates the demo readings
// TestTinyMLEngine_ReferenceScenarios 测试内置模型能区分演示读数
func TestTinyMLEngine_ReferenceScenarios(t *testing.T) {
	e, in, out := loadReference(t)
	cal := normalizer.DefaultCalibration()

	tests := []struct {
		name string
		raw  normalizer.FeatureVector
		fire bool
	}{
		{"normal", normalizer.NewFeatureVector(20, 45, 380, 0.008, 1013), false},
		{"high temperature", normalizer.NewFeatureVector(45, 30, 450, 0.05, 1010), true},
		{"high co2 hydrogen", normalizer.NewFeatureVector(35, 60, 800, 0.15, 1008), true},
		{"extreme", normalizer.NewFeatureVector(80, 15, 1200, 0.30, 990), true},
		{"cold humid", normalizer.NewFeatureVector(5, 80, 350, 0.002, 1020), false},
		{"moderate", normalizer.NewFeatureVector(32, 55, 550, 0.08, 1012), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			std := normalizer.Standardize(tc.raw, cal)
			q := bridge.Encode(std[:], in)
			o, err := e.Invoke(context.Background(), q)
			require.NoError(t, err)
			p := bridge.Decode(o, out, 0)
			assert.Equal(t, tc.fire, bridge.Decide(p, 0.45) == bridge.Fire, "p=%v", p)
		})
	}
}

// TestTinyMLEngine_Deterministic tests repeated invokes give identical output
// TestTinyMLEngine_Deterministic 测试重复调用输出一致
func TestTinyMLEngine_Deterministic(t *testing.T) {
	e, _, _ := loadReference(t)
	input := []int8{10, -20, 30, -40, 50}
	a, err := e.Invoke(context.Background(), input)
	require.NoError(t, err)
	b, err := e.Invoke(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
