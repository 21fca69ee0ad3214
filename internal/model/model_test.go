package model

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/livp123/firesense/internal/bridge"
	fserrors "github.com/livp123/firesense/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeDecode_Reference tests the reference model survives serialization
// TestEncodeDecode_Reference 测试参考模型序列化后保持不变
func TestEncodeDecode_Reference(t *testing.T) {
	ref := Reference()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, ref))
	assert.Equal(t, Magic, string(buf.Bytes()[:4]))
	assert.Equal(t, byte(SchemaVersion), buf.Bytes()[4])

	m, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, ref, m)
	assert.Equal(t, 5, m.InputSize())
	assert.Equal(t, 1, m.OutputSize())
	assert.Equal(t, uint8(SchemaVersion), m.SchemaVersion())
	assert.Equal(t, ReferenceOutput, m.OutputParams())
}

func TestReference_Weights(t *testing.T) {
	l := Reference().Layers[0]
	assert.Equal(t, []int8{127, -42, 106, 85, -21}, l.W)
	assert.Equal(t, ActivationLogistic, l.Activation)
	require.Len(t, l.Bias, 1)
	// -3.0 at accumulator scale 0.25 * 0.6/127.
	assert.InDelta(t, -2540, l.Bias[0], 1)
}

// TestUnmarshal_SchemaMismatch tests a wrong schema is a configuration error
// TestUnmarshal_SchemaMismatch 测试 schema 不匹配属于配置错误
func TestUnmarshal_SchemaMismatch(t *testing.T) {
	data := ReferenceBytes()
	data[4] = 2

	_, err := Unmarshal(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, fserrors.ErrSchemaMismatch)
	assert.True(t, fserrors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "model schema 2 not equal to 3")
}

func TestUnmarshal_Corruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   string
	}{
		{"empty", func(b []byte) []byte { return nil }, "truncated header"},
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }, "invalid magic"},
		{"flipped weight", func(b []byte) []byte { b[len(b)-sha256.Size-5] ^= 0xff; return b }, "checksum mismatch"},
		{"header only", func(b []byte) []byte { return b[:headerSize] }, "truncated body"},
		{"truncated", func(b []byte) []byte { return resign(b[:len(b)-sha256.Size-2]) }, "truncated body"},
		{"oversized layer", func(b []byte) []byte {
			// Keep the header and the first layer's fixed fields, then claim 4096x4096
			// 保留头部和第一层固定字段，并声明 4096x4096
			body := append([]byte{}, b[:headerSize+16+28]...)
			binary.LittleEndian.PutUint32(body[headerSize+16:], MaxDim)
			binary.LittleEndian.PutUint32(body[headerSize+20:], MaxDim)
			return resign(body)
		}, "layer 0 needs"},
		{"trailing bytes", func(b []byte) []byte {
			body := append(append([]byte{}, b[:len(b)-sha256.Size]...), 0, 0)
			return resign(body)
		}, "trailing bytes"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unmarshal(tc.mutate(ReferenceBytes()))
			require.Error(t, err)
			assert.ErrorIs(t, err, fserrors.ErrInvalidModel)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

// resign appends a fresh checksum to a body.
func resign(body []byte) []byte {
	sum := sha256.Sum256(body)
	return append(body, sum[:]...)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Model)
	}{
		{"zero input", func(m *Model) { m.InputDim = 0 }},
		{"bad input scale", func(m *Model) { m.Input.Scale = 0 }},
		{"no layers", func(m *Model) { m.Layers = nil }},
		{"broken chain", func(m *Model) { m.Layers[0].In = 4 }},
		{"weight count", func(m *Model) { m.Layers[0].W = m.Layers[0].W[:3] }},
		{"bias count", func(m *Model) { m.Layers[0].Bias = nil }},
		{"activation", func(m *Model) { m.Layers[0].Activation = 9 }},
		{"output zp", func(m *Model) { m.Layers[0].Output.ZeroPoint = 300 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Reference()
			tc.mutate(m)
			err := m.Validate()
			assert.ErrorIs(t, err, fserrors.ErrInvalidModel)
			_, err = Marshal(m)
			assert.Error(t, err)
		})
	}
	assert.NoError(t, Reference().Validate())
}

// TestMultiLayer tests a hidden relu layer round trip
// TestMultiLayer 测试带隐藏 relu 层的往返
func TestMultiLayer(t *testing.T) {
	hidden := bridge.Params{Scale: 0.125, ZeroPoint: -128}
	m := &Model{
		Version:  SchemaVersion,
		InputDim: 3,
		Input:    ReferenceInput,
		Layers: []Layer{
			NewDense(ReferenceInput, [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}, []float64{0, 0, 0, 0}, ActivationReLU, hidden),
			NewDense(hidden, [][]float64{{0.5, 0.5, 0.5, -1}}, []float64{0.1}, ActivationLogistic, ReferenceOutput),
		},
	}
	data, err := Marshal(m)
	require.NoError(t, err)
	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, m, back)
	assert.Equal(t, 4, back.MaxWidth())
	assert.Contains(t, back.Describe(), "layer 1: dense 4 -> 1, activation=logistic")
}

type memStore struct {
	objects map[string][]byte
}

func (s *memStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (s *memStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	s.objects[bucket+"/"+key] = data
	return nil
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	data, err := Fetch(ctx, BuiltinSource, nil)
	require.NoError(t, err)
	assert.Equal(t, ReferenceBytes(), data)

	path := filepath.Join(t.TempDir(), "fire.fsnn")
	require.NoError(t, os.WriteFile(path, data, 0644))
	fromFile, err := Fetch(ctx, path, nil)
	require.NoError(t, err)
	assert.Equal(t, data, fromFile)

	_, err = Fetch(ctx, filepath.Join(t.TempDir(), "missing"), nil)
	assert.True(t, fserrors.IsConfiguration(err))
	assert.ErrorIs(t, err, fserrors.ErrFileNotFound)

	_, err = Fetch(ctx, "s3://models/fire.fsnn", nil)
	assert.True(t, fserrors.IsConfiguration(err))

	store := &memStore{objects: map[string][]byte{}}
	require.NoError(t, Push(ctx, "s3://models/fire.fsnn", data, store))
	fromS3, err := Fetch(ctx, "s3://models/fire.fsnn", store)
	require.NoError(t, err)
	assert.Equal(t, data, fromS3)

	_, err = Fetch(ctx, "s3://models/other", store)
	assert.True(t, fserrors.IsConfiguration(err))

	assert.Error(t, Push(ctx, "s3://models/bad", []byte("junk"), store))
}

func TestParseS3URI(t *testing.T) {
	b, k, err := ParseS3URI("s3://models/v3/fire.fsnn")
	require.NoError(t, err)
	assert.Equal(t, "models", b)
	assert.Equal(t, "v3/fire.fsnn", k)

	for _, bad := range []string{"models/fire", "s3://models", "s3:///key", "s3://models/"} {
		_, _, err := ParseS3URI(bad)
		assert.Error(t, err, bad)
	}
}

func TestRequiredArena(t *testing.T) {
	// input 5 -> 8, output 1 -> 8, accumulator 4 -> 8
	assert.Equal(t, 24, RequiredArena(Reference()))
	assert.Equal(t, 0, Align(0))
	assert.Equal(t, 8, Align(1))
	assert.Equal(t, 16, Align(9))
}
