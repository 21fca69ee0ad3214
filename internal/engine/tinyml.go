package engine

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/livp123/firesense/internal/bridge"
	"github.com/livp123/firesense/internal/model"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// TinyMLEngine is a pure-Go int8 interpreter for fully connected models.
// TinyMLEngine 是用于全连接模型的纯 Go int8 解释器。
type TinyMLEngine struct {
	mu     sync.Mutex
	model  *model.Model
	arena  *Arena
	input  []int8
	layers [][]int8
	acc    []int32
	// valid is false until an invoke completes; a failed invoke clears it.
	valid bool
}

// NewTinyMLEngine creates a new TinyMLEngine instance.
// NewTinyMLEngine 创建一个新的 TinyMLEngine 实例。
func NewTinyMLEngine() *TinyMLEngine {
	return &TinyMLEngine{}
}

// LoadModel decodes and validates a serialized model.
// LoadModel 解码并验证序列化模型。
func (e *TinyMLEngine) LoadModel(data []byte) (ModelHandle, error) {
	m, err := model.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = m
	e.arena = nil
	e.valid = false

	logger.Get(nil).Infof("[MODEL] Loaded model schema=%d input=%d output=%d layers=%d",
		m.SchemaVersion(), m.InputSize(), m.OutputSize(), len(m.Layers))
	return m, nil
}

// Allocate carves the input tensor, one tensor per layer output and the
// accumulator from a fresh arena of arenaSize bytes.
// Allocate 从新的 arena 中切分输入张量、各层输出张量和累加器。
func (e *TinyMLEngine) Allocate(h ModelHandle, arenaSize int) (in, out bridge.Params, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := h.(*model.Model)
	if !ok || m != e.model {
		return in, out, fserrors.NewModelError("handle was not loaded by this engine")
	}

	required := model.RequiredArena(m)
	if required > arenaSize {
		return in, out, fserrors.NewAllocationError(required, arenaSize)
	}

	arena, err := NewArena(arenaSize)
	if err != nil {
		return in, out, fserrors.NewAllocationError(required, arenaSize)
	}

	carveErr := func(err error) error {
		return fmt.Errorf("%w: %v", fserrors.NewAllocationError(required, arenaSize), err)
	}
	input, err := arena.Int8(m.InputDim)
	if err != nil {
		return in, out, carveErr(err)
	}
	layers := make([][]int8, len(m.Layers))
	maxOut := 0
	for i, l := range m.Layers {
		if layers[i], err = arena.Int8(l.Out); err != nil {
			return in, out, carveErr(err)
		}
		maxOut = max(maxOut, l.Out)
	}
	acc, err := arena.Int32(maxOut)
	if err != nil {
		return in, out, carveErr(err)
	}

	e.arena = arena
	e.input = input
	e.layers = layers
	e.acc = acc
	e.valid = false

	logger.Get(nil).Infof("[MODEL] Tensors allocated: %d/%d arena bytes", arena.Used(), arena.Size())
	return m.Input, m.OutputParams(), nil
}

// ArenaUsed reports how many arena bytes the allocated tensors occupy.
// ArenaUsed 返回已分配张量占用的 arena 字节数。
func (e *TinyMLEngine) ArenaUsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.arena == nil {
		return 0
	}
	return e.arena.Used()
}

// OutputValid reports whether the output tensor holds the result of a
// completed invoke.
func (e *TinyMLEngine) OutputValid() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.valid
}

// Invoke runs the model on a quantized input and returns a copy of the
// output tensor.
// Invoke 对量化输入执行模型并返回输出张量的副本。
func (e *TinyMLEngine) Invoke(ctx context.Context, input []int8) ([]int8, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.valid = false
	if e.arena == nil {
		return nil, fserrors.NewInvokeError(fserrors.ErrNotAllocated)
	}
	if len(input) != len(e.input) {
		return nil, fserrors.NewInvokeError(fmt.Errorf("input has %d elements, model expects %d", len(input), len(e.input)))
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, fserrors.NewInvokeError(err)
		}
	}

	copy(e.input, input)
	src, srcQP := e.input, e.model.Input
	for i := range e.model.Layers {
		l := &e.model.Layers[i]
		dense(l, src, srcQP, e.layers[i], e.acc[:l.Out])
		src, srcQP = e.layers[i], l.Output
	}
	e.valid = true

	out := make([]int8, len(src))
	copy(out, src)
	return out, nil
}

// dense computes one fully connected layer: int32 accumulation of zero-point
// corrected products, activation in the real domain, then saturating
// requantization into dst.
func dense(l *model.Layer, src []int8, srcQP bridge.Params, dst []int8, acc []int32) {
	accScale := srcQP.Scale * l.Weights.Scale
	for o := 0; o < l.Out; o++ {
		sum := l.Bias[o]
		row := l.W[o*l.In : (o+1)*l.In]
		for i, w := range row {
			sum += (int32(src[i]) - srcQP.ZeroPoint) * (int32(w) - l.Weights.ZeroPoint)
		}
		acc[o] = sum

		v := activate(l.Activation, float64(sum)*accScale)
		dst[o], _ = bridge.Quantize(v, l.Output)
	}
}

func activate(a model.Activation, x float64) float64 {
	switch a {
	case model.ActivationReLU:
		return math.Max(0, x)
	case model.ActivationLogistic:
		return 1 / (1 + math.Exp(-x))
	default:
		return x
	}
}
