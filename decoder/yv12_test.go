package decoder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewYV12Layout(t *testing.T) {
	l := NewYV12Layout(64, 48, 48)
	require.Equal(t, 64*48, l.LumaSize)
	require.Equal(t, 32, l.ChromaStride)
	require.Equal(t, 24, l.ChromaHeight)
	require.Equal(t, 64*48, l.VOffset)
	require.Equal(t, 64*48+32*24, l.UOffset)
	require.Equal(t, 64*48+2*32*24, l.Size)

	// chroma stride is aligned up to 16
	l = NewYV12Layout(40, 10, 10)
	require.Equal(t, 32, l.ChromaStride)
	require.Equal(t, 5, l.ChromaHeight)

	// odd height rounds up, display height caps
	l = NewYV12Layout(32, 9, 9)
	require.Equal(t, 5, l.ChromaHeight)
	l = NewYV12Layout(32, 64, 4)
	require.Equal(t, 4, l.ChromaHeight)
}

func TestCopyYV12(t *testing.T) {
	const (
		w, h   = 10, 5
		stride = 16
	)
	frame := newFilledFrame(w, h)
	layout := NewYV12Layout(stride, h, h)
	require.Equal(t, 80, layout.VOffset)
	require.Equal(t, 16, layout.ChromaStride)
	require.Equal(t, 3, layout.ChromaHeight)
	require.Equal(t, 128, layout.UOffset)

	buf := SurfaceBuffer{Bits: make([]byte, layout.Size), Width: w, Height: h, Stride: stride}
	require.NoError(t, CopyYV12(buf, frame.Data, w, h))

	for row := 0; row < h; row++ {
		for col := 0; col < stride; col++ {
			expected := byte(0)
			if col < w {
				expected = 1
			}
			require.Equal(t, expected, buf.Bits[row*stride+col], "luma %d:%d", row, col)
		}
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 16; col++ {
			v, u := byte(0), byte(0)
			if col < 5 {
				v, u = 3, 2
			}
			require.Equal(t, v, buf.Bits[layout.VOffset+row*16+col], "V %d:%d", row, col)
			require.Equal(t, u, buf.Bits[layout.UOffset+row*16+col], "U %d:%d", row, col)
		}
	}

	require.Error(t, CopyYV12(buf, frame.Data[:2], w, h))
	require.Error(t, CopyYV12(SurfaceBuffer{Bits: make([]byte, 10), Height: h, Stride: stride}, frame.Data, w, h))
}

func TestCopyYV12ShortSource(t *testing.T) {
	frame := newFilledFrame(4, 2)
	layout := NewYV12Layout(16, 8, 8)
	buf := SurfaceBuffer{Bits: make([]byte, layout.Size), Width: 16, Height: 8, Stride: 16}
	require.NoError(t, CopyYV12(buf, frame.Data, 16, 8))
	require.Equal(t, byte(1), buf.Bits[16+3])
	require.Equal(t, byte(0), buf.Bits[2*16])
}

func TestCopyYV12InvalidDisplaySize(t *testing.T) {
	frame := newFilledFrame(4, 4)
	layout := NewYV12Layout(16, 8, 8)
	buf := SurfaceBuffer{Bits: make([]byte, layout.Size), Width: 16, Height: 8, Stride: 16}
	require.Error(t, CopyYV12(buf, frame.Data, 4, -4))
	require.Error(t, CopyYV12(buf, frame.Data, 0, 4))
	require.Equal(t, make([]byte, layout.Size), buf.Bits)
}
