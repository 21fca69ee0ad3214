// Package engine executes quantized fire models. The pipeline only sees the
// Engine interface: load, allocate once, invoke per cycle.
// Package engine 执行量化火灾模型，流水线只依赖 Engine 接口。
package engine

import (
	"context"

	"github.com/livp123/firesense/internal/bridge"
)

// DefaultArenaSize is the tensor arena budget of the reference configuration.
// DefaultArenaSize 是参考配置的张量 arena 预算。
const DefaultArenaSize = 30 * 1024

// ModelHandle identifies a model accepted by LoadModel.
// ModelHandle 标识 LoadModel 接受的模型。
type ModelHandle interface {
	SchemaVersion() uint8
	InputSize() int
	OutputSize() int
}

// Engine is the quantized inference collaborator.
// Engine 是量化推理协作者。
type Engine interface {
	// LoadModel parses model bytes. A schema other than the supported one
	// is an ErrSchemaMismatch configuration error.
	// LoadModel 解析模型字节，schema 不匹配属于配置错误。
	LoadModel(data []byte) (ModelHandle, error)

	// Allocate reserves every tensor inside an arena of arenaSize bytes and
	// returns the input and output quantization. It must succeed before
	// Invoke; failure is ErrAllocationFailed and fatal.
	// Allocate 在 arena 中预留全部张量并返回输入输出量化参数。
	Allocate(h ModelHandle, arenaSize int) (in, out bridge.Params, err error)

	// Invoke runs one synchronous inference. On error the returned buffer is
	// nil and must not be decoded.
	// Invoke 执行一次同步推理，出错时不得解码输出。
	Invoke(ctx context.Context, input []int8) ([]int8, error)
}
