package engine

import (
	"context"
	"testing"
	"unsafe"

	fserrors "github.com/livp123/firesense/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_Carve(t *testing.T) {
	a, err := NewArena(40)
	require.NoError(t, err)
	assert.Equal(t, 40, a.Size())

	in, err := a.Int8(5)
	require.NoError(t, err)
	assert.Len(t, in, 5)
	assert.Equal(t, 8, a.Used())

	acc, err := a.Int32(3)
	require.NoError(t, err)
	assert.Len(t, acc, 3)
	assert.Equal(t, 24, a.Used())
	assert.Zero(t, uintptr(unsafe.Pointer(&acc[0]))%4)

	// Tensors do not overlap.
	in[4] = 7
	acc[0] = -1
	assert.Equal(t, int8(7), in[4])

	_, err = a.Int8(17)
	assert.Error(t, err)

	a.Reset()
	assert.Equal(t, 0, a.Used())
	assert.Equal(t, int8(0), in[4])
}

func TestNewArena_Invalid(t *testing.T) {
	_, err := NewArena(0)
	assert.Error(t, err)
}

func TestMockEngine(t *testing.T) {
	m := NewStubEngine(0.92)
	h, err := m.LoadModel(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, h.OutputSize())

	_, err = m.Invoke(context.Background(), []int8{1})
	assert.Error(t, err)

	_, out, err := m.Allocate(h, DefaultArenaSize)
	require.NoError(t, err)
	assert.Equal(t, StubOutputParams, out)

	m.FailNext(1)
	_, err = m.Invoke(context.Background(), []int8{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrInjected)

	buf, err := m.Invoke(context.Background(), []int8{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []int8{92}, buf)
	assert.Equal(t, 3, m.Calls())
	assert.Equal(t, []int8{1, 2, 3, 4, 5}, m.LastInput())

	m.Schema = 2
	_, err = m.LoadModel(nil)
	assert.ErrorIs(t, err, fserrors.ErrSchemaMismatch)
}
