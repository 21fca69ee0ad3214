// Package model defines the quantized fire-detection network, its binary
// file format, and where model bytes are fetched from.
// Package model 定义量化火灾检测网络、其二进制文件格式以及模型字节的获取来源。
package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/livp123/firesense/internal/bridge"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

const (
	// MaxDim bounds any tensor dimension a model may declare.
	// MaxDim 限制模型可声明的任意张量维度。
	MaxDim = 4096
	// MaxLayers bounds the depth of a model.
	MaxLayers = 64
)

// Activation is the non-linearity applied after a dense layer.
// Activation 是全连接层之后应用的非线性函数。
type Activation uint8

const (
	ActivationNone Activation = iota
	ActivationReLU
	ActivationLogistic
)

func (a Activation) String() string {
	switch a {
	case ActivationNone:
		return "none"
	case ActivationReLU:
		return "relu"
	case ActivationLogistic:
		return "logistic"
	default:
		return fmt.Sprintf("activation(%d)", uint8(a))
	}
}

// Layer is a fully connected int8 layer. Weights are row-major by output:
// W[o*In+i] connects input i to output o. Bias is expressed at scale
// input.Scale*Weights.Scale with zero point 0.
// Layer 是全连接 int8 层，权重按输出行优先存储。
type Layer struct {
	In         int
	Out        int
	Activation Activation
	Weights    bridge.Params
	Output     bridge.Params
	W          []int8
	Bias       []int32
}

// Model is a decoded, validated network.
// Model 是已解码并验证的网络。
type Model struct {
	Version  uint8
	InputDim int
	Input    bridge.Params
	Layers   []Layer
}

// SchemaVersion returns the schema the model was serialized with.
func (m *Model) SchemaVersion() uint8 { return m.Version }

// InputSize returns the element count of the input tensor.
func (m *Model) InputSize() int { return m.InputDim }

// OutputSize returns the element count of the output tensor.
func (m *Model) OutputSize() int {
	if len(m.Layers) == 0 {
		return 0
	}
	return m.Layers[len(m.Layers)-1].Out
}

// OutputParams returns the quantization of the output tensor.
// OutputParams 返回输出张量的量化参数。
func (m *Model) OutputParams() bridge.Params {
	if len(m.Layers) == 0 {
		return bridge.Params{}
	}
	return m.Layers[len(m.Layers)-1].Output
}

// MaxWidth returns the widest tensor in the network.
func (m *Model) MaxWidth() int {
	w := m.InputDim
	for _, l := range m.Layers {
		if l.Out > w {
			w = l.Out
		}
	}
	return w
}

// Validate checks structural consistency. Errors are configuration errors.
// Validate 检查结构一致性，错误属于配置错误。
func (m *Model) Validate() error {
	if m.InputDim <= 0 || m.InputDim > MaxDim {
		return fserrors.NewModelError(fmt.Sprintf("input size %d out of range", m.InputDim))
	}
	if err := m.Input.Validate(); err != nil {
		return fserrors.NewModelError(fmt.Sprintf("input quantization: %v", err))
	}
	if len(m.Layers) == 0 || len(m.Layers) > MaxLayers {
		return fserrors.NewModelError(fmt.Sprintf("layer count %d out of range", len(m.Layers)))
	}

	in := m.InputDim
	for i, l := range m.Layers {
		if l.In != in {
			return fserrors.NewModelError(fmt.Sprintf("layer %d expects %d inputs, previous tensor has %d", i, l.In, in))
		}
		if l.Out <= 0 || l.Out > MaxDim {
			return fserrors.NewModelError(fmt.Sprintf("layer %d output size %d out of range", i, l.Out))
		}
		if l.Activation > ActivationLogistic {
			return fserrors.NewModelError(fmt.Sprintf("layer %d: unknown %s", i, l.Activation))
		}
		if err := l.Weights.Validate(); err != nil {
			return fserrors.NewModelError(fmt.Sprintf("layer %d weight quantization: %v", i, err))
		}
		if err := l.Output.Validate(); err != nil {
			return fserrors.NewModelError(fmt.Sprintf("layer %d output quantization: %v", i, err))
		}
		if len(l.W) != l.In*l.Out {
			return fserrors.NewModelError(fmt.Sprintf("layer %d has %d weights, want %d", i, len(l.W), l.In*l.Out))
		}
		if len(l.Bias) != l.Out {
			return fserrors.NewModelError(fmt.Sprintf("layer %d has %d biases, want %d", i, len(l.Bias), l.Out))
		}
		in = l.Out
	}
	return nil
}

// Describe renders a human readable summary of the model.
// Describe 生成模型的可读摘要。
func (m *Model) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema: %d\n", m.Version)
	fmt.Fprintf(&b, "input: [%d] %s\n", m.InputDim, m.Input)
	for i, l := range m.Layers {
		fmt.Fprintf(&b, "layer %d: dense %d -> %d, activation=%s, weights(%s), output(%s)\n",
			i, l.In, l.Out, l.Activation, l.Weights, l.Output)
	}
	fmt.Fprintf(&b, "output: [%d] %s\n", m.OutputSize(), m.OutputParams())
	return b.String()
}

// NewDense quantizes a real-valued dense layer. weights[o][i] connects input
// i to output o. Weights use a symmetric per-tensor scale.
// NewDense 量化一个实数全连接层，权重使用对称的逐张量 scale。
func NewDense(input bridge.Params, weights [][]float64, bias []float64, act Activation, output bridge.Params) Layer {
	out := len(weights)
	in := 0
	if out > 0 {
		in = len(weights[0])
	}

	maxAbs := 0.0
	for _, row := range weights {
		for _, w := range row {
			maxAbs = math.Max(maxAbs, math.Abs(w))
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}
	// Scales are stored as float32 on disk.
	wq := bridge.Params{Scale: float64(float32(maxAbs / bridge.QMax)), ZeroPoint: 0}

	l := Layer{
		In:         in,
		Out:        out,
		Activation: act,
		Weights:    wq,
		Output:     output,
		W:          make([]int8, 0, in*out),
		Bias:       make([]int32, out),
	}
	for _, row := range weights {
		for _, w := range row {
			q, _ := bridge.Quantize(w, wq)
			l.W = append(l.W, q)
		}
	}
	accScale := input.Scale * wq.Scale
	for o := range l.Bias {
		if o < len(bias) {
			l.Bias[o] = int32(math.Round(bias[o] / accScale))
		}
	}
	return l
}

// TensorAlign is the byte alignment of every tensor carved from an arena.
const TensorAlign = 8

// Align rounds n up to TensorAlign.
func Align(n int) int {
	return (n + TensorAlign - 1) &^ (TensorAlign - 1)
}

// RequiredArena reports the arena bytes an interpreter needs for m: the
// input tensor, one int8 tensor per layer output and a shared int32
// accumulator as wide as the widest layer.
// RequiredArena 返回解释器执行 m 所需的 arena 字节数。
func RequiredArena(m *Model) int {
	n := Align(m.InputDim)
	maxOut := 0
	for _, l := range m.Layers {
		n += Align(l.Out)
		if l.Out > maxOut {
			maxOut = l.Out
		}
	}
	return n + Align(4*maxOut)
}
