package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/livp123/firesense/internal/bridge"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

const (
	Magic = "FSNN"
	// SchemaVersion is the only schema this build can execute.
	// SchemaVersion 是当前构建唯一可执行的 schema 版本。
	SchemaVersion = 3

	headerSize = 8
	// MaxModelSize caps how much a reader may feed Decode.
	MaxModelSize = 4 << 20
)

// Encode writes the model to w:
// [magic 4][schema 1][reserved 3][input size u32][input scale f32][input zp i32][layers u32]
// then per layer [in u32][out u32][activation u8][reserved 3][w scale f32][w zp i32]
// [out scale f32][out zp i32][weights int8 ...][bias int32 ...],
// followed by a SHA-256 of everything before it. Integers are little endian.
// Encode 将模型写入 w，末尾附带 SHA-256 校验。
func Encode(w io.Writer, m *Model) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal serializes a model into a byte slice.
// Marshal 将模型序列化为字节切片。
func Marshal(m *Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	// Write Magic / 写入魔数
	buf.WriteString(Magic)
	// Write Version / 写入版本
	version := m.Version
	if version == 0 {
		version = SchemaVersion
	}
	buf.WriteByte(version)
	// Reserved 3 bytes / 预留 3 字节
	buf.Write([]byte{0, 0, 0})

	writeParams := func(p bridge.Params) {
		_ = binary.Write(&buf, binary.LittleEndian, float32(p.Scale))
		_ = binary.Write(&buf, binary.LittleEndian, p.ZeroPoint)
	}

	_ = binary.Write(&buf, binary.LittleEndian, uint32(m.InputDim))
	writeParams(m.Input)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(m.Layers)))

	for _, l := range m.Layers {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(l.In))
		_ = binary.Write(&buf, binary.LittleEndian, uint32(l.Out))
		buf.Write([]byte{byte(l.Activation), 0, 0, 0})
		writeParams(l.Weights)
		writeParams(l.Output)
		_ = binary.Write(&buf, binary.LittleEndian, l.W)
		_ = binary.Write(&buf, binary.LittleEndian, l.Bias)
	}

	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

// Decode reads a model from r and validates it.
// Decode 从读取器解码模型并验证。
func Decode(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxModelSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxModelSize {
		return nil, fserrors.NewModelError(fmt.Sprintf("model exceeds %d bytes", MaxModelSize))
	}
	return Unmarshal(data)
}

// Unmarshal parses model bytes. A schema other than SchemaVersion is
// rejected before anything else is trusted.
// Unmarshal 解析模型字节，schema 不匹配时立即拒绝。
func Unmarshal(data []byte) (*Model, error) {
	if len(data) < headerSize {
		return nil, fserrors.NewModelError("truncated header")
	}
	if string(data[:4]) != Magic {
		return nil, fserrors.NewModelError(fmt.Sprintf("invalid magic: %q", string(data[:4])))
	}
	if data[4] != SchemaVersion {
		return nil, fserrors.NewSchemaError(data[4], SchemaVersion)
	}
	if len(data) < headerSize+sha256.Size {
		return nil, fserrors.NewModelError("truncated body")
	}

	body, trailer := data[:len(data)-sha256.Size], data[len(data)-sha256.Size:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], trailer) {
		return nil, fserrors.NewModelError("checksum mismatch")
	}

	d := &decoder{r: bytes.NewReader(body[headerSize:])}
	m := &Model{Version: data[4]}

	m.InputDim = d.dim("input size")
	m.Input = d.params()
	layers := d.u32()
	if d.err == nil && (layers == 0 || layers > MaxLayers) {
		return nil, fserrors.NewModelError(fmt.Sprintf("layer count %d out of range", layers))
	}

	for i := uint32(0); i < layers && d.err == nil; i++ {
		var l Layer
		l.In = d.dim(fmt.Sprintf("layer %d input", i))
		l.Out = d.dim(fmt.Sprintf("layer %d output", i))
		var act [4]byte
		d.read(&act)
		l.Activation = Activation(act[0])
		l.Weights = d.params()
		l.Output = d.params()
		if d.err != nil {
			break
		}
		if need := l.In*l.Out + 4*l.Out; d.r.Len() < need {
			return nil, fserrors.NewModelError(fmt.Sprintf("truncated body: layer %d needs %d bytes, %d left", i, need, d.r.Len()))
		}
		l.W = make([]int8, l.In*l.Out)
		l.Bias = make([]int32, l.Out)
		d.read(l.W)
		d.read(l.Bias)
		m.Layers = append(m.Layers, l)
	}

	if d.err != nil {
		return nil, d.err
	}
	if d.r.Len() != 0 {
		return nil, fserrors.NewModelError(fmt.Sprintf("%d trailing bytes", d.r.Len()))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// decoder keeps the first read error so field parsing stays linear.
type decoder struct {
	r   *bytes.Reader
	err error
}

func (d *decoder) read(v interface{}) {
	if d.err != nil {
		return
	}
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		d.err = fserrors.NewModelError(fmt.Sprintf("truncated body: %v", err))
	}
}

func (d *decoder) u32() uint32 {
	var v uint32
	d.read(&v)
	return v
}

func (d *decoder) dim(name string) int {
	v := d.u32()
	if d.err == nil && (v == 0 || v > MaxDim) {
		d.err = fserrors.NewModelError(fmt.Sprintf("%s %d out of range", name, v))
	}
	return int(v)
}

func (d *decoder) params() bridge.Params {
	var scale float32
	var zp int32
	d.read(&scale)
	d.read(&zp)
	return bridge.Params{Scale: float64(scale), ZeroPoint: zp}
}
