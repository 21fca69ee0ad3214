package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/livp123/firesense/internal/bridge"
	"github.com/livp123/firesense/internal/model"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// ErrInjected is returned by MockEngine when a failure was requested.
var ErrInjected = errors.New("injected invoke failure")

// StubOutputParams quantizes a probability as hundredths.
// StubOutputParams 以百分之一为步长量化概率。
var StubOutputParams = bridge.Params{Scale: 0.01, ZeroPoint: 0}

type mockHandle struct {
	schema uint8
	in     int
	out    int
}

func (h mockHandle) SchemaVersion() uint8 { return h.schema }
func (h mockHandle) InputSize() int       { return h.in }
func (h mockHandle) OutputSize() int      { return h.out }

// MockEngine is a deterministic engine returning a fixed output buffer.
// MockEngine 是返回固定输出缓冲区的确定性引擎。
type MockEngine struct {
	mu sync.Mutex

	Schema   uint8
	InputDim int
	Output   []int8
	In       bridge.Params
	Out      bridge.Params
	// AllocErr, if set, is returned by Allocate.
	AllocErr error

	failNext  int
	allocated bool
	calls     int
	lastInput []int8
}

// NewMockEngine creates a mock returning output with the given quantization.
// NewMockEngine 创建使用给定量化参数返回 output 的模拟引擎。
func NewMockEngine(output []int8, in, out bridge.Params) *MockEngine {
	return &MockEngine{
		Schema:   model.SchemaVersion,
		InputDim: 5,
		Output:   output,
		In:       in,
		Out:      out,
	}
}

// NewStubEngine returns a mock whose single output decodes to p.
// NewStubEngine 返回单个输出解码为 p 的模拟引擎。
func NewStubEngine(p float64) *MockEngine {
	q, _ := bridge.Quantize(bridge.ClampProbability(p), StubOutputParams)
	return NewMockEngine([]int8{q}, model.ReferenceInput, StubOutputParams)
}

// FailNext makes the next n invocations fail.
// FailNext 使接下来的 n 次调用失败。
func (m *MockEngine) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// Calls returns how many times Invoke was called.
func (m *MockEngine) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastInput returns a copy of the most recent input buffer.
func (m *MockEngine) LastInput() []int8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int8(nil), m.lastInput...)
}

// LoadModel ignores data and checks only the configured schema.
func (m *MockEngine) LoadModel(data []byte) (ModelHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Schema != model.SchemaVersion {
		return nil, fserrors.NewSchemaError(m.Schema, model.SchemaVersion)
	}
	return mockHandle{schema: m.Schema, in: m.InputDim, out: len(m.Output)}, nil
}

func (m *MockEngine) Allocate(h ModelHandle, arenaSize int) (in, out bridge.Params, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AllocErr != nil {
		return in, out, m.AllocErr
	}
	m.allocated = true
	return m.In, m.Out, nil
}

func (m *MockEngine) Invoke(ctx context.Context, input []int8) ([]int8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastInput = append(m.lastInput[:0], input...)
	if !m.allocated {
		return nil, fserrors.NewInvokeError(fserrors.ErrNotAllocated)
	}
	if m.failNext > 0 {
		m.failNext--
		return nil, fserrors.NewInvokeError(ErrInjected)
	}
	return append([]int8(nil), m.Output...), nil
}
