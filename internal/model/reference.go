package model

import "github.com/livp123/firesense/internal/bridge"

var (
	// ReferenceInput covers standardized readings in [-32, 31.75].
	ReferenceInput = bridge.Params{Scale: 0.25, ZeroPoint: 0}
	// ReferenceOutput is the usual logistic output quantization.
	ReferenceOutput = bridge.Params{Scale: 1.0 / 256.0, ZeroPoint: -128}
)

// Reference builds the bundled single-layer logistic fire model. It takes
// the five standardized features and returns one fire probability.
// Reference 构建内置的单层逻辑回归火灾模型。
func Reference() *Model {
	weights := [][]float64{{0.6, -0.2, 0.5, 0.4, -0.1}}
	bias := []float64{-3.0}
	return &Model{
		Version:  SchemaVersion,
		InputDim: len(weights[0]),
		Input:    ReferenceInput,
		Layers: []Layer{
			NewDense(ReferenceInput, weights, bias, ActivationLogistic, ReferenceOutput),
		},
	}
}

// ReferenceBytes returns the serialized reference model.
// ReferenceBytes 返回序列化后的参考模型。
func ReferenceBytes() []byte {
	data, err := Marshal(Reference())
	if err != nil {
		// Reference is static; a failure here is a programming error.
		panic(err)
	}
	return data
}
