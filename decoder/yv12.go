package decoder

import (
	"fmt"
)

// YV12Layout describes where the planes of a YV12 buffer live.
type YV12Layout struct {
	LumaStride   int
	LumaSize     int
	ChromaStride int
	ChromaHeight int
	VOffset      int
	UOffset      int
	Size         int
}

func align(v, to int) int {
	return (v + to - 1) &^ (to - 1)
}

// NewYV12Layout computes the layout of a buffer with the given luma stride
// and height. Chroma rows are 16-byte aligned, and each chroma plane is cut
// to displayHeight rows.
func NewYV12Layout(stride, height, displayHeight int) YV12Layout {
	lumaSize := stride * height
	chromaStride := align(stride/2, 16)
	chromaHeight := min((height+1)/2, displayHeight)
	chromaSize := chromaStride * chromaHeight
	return YV12Layout{
		LumaStride:   stride,
		LumaSize:     lumaSize,
		ChromaStride: chromaStride,
		ChromaHeight: chromaHeight,
		VOffset:      lumaSize,
		UOffset:      lumaSize + chromaSize,
		Size:         lumaSize + 2*chromaSize,
	}
}

// CopyYV12 copies planar yuv420p planes (Y, U, V) into dst, writing the V
// plane before the U plane.
func CopyYV12(
	dst SurfaceBuffer,
	planes []Plane,
	displayWidth, displayHeight int,
) error {
	if displayWidth <= 0 || displayHeight <= 0 {
		return fmt.Errorf("invalid display size %dx%d", displayWidth, displayHeight)
	}
	if len(planes) < 3 {
		return fmt.Errorf("expected 3 planes, got %d", len(planes))
	}
	layout := NewYV12Layout(dst.Stride, dst.Height, displayHeight)
	if len(dst.Bits) < layout.Size {
		return fmt.Errorf("the surface buffer is too small: %d < %d", len(dst.Bits), layout.Size)
	}

	lumaRows := min(displayHeight, dst.Height)
	copyPlane(dst.Bits[:layout.LumaSize], layout.LumaStride, planes[0], displayWidth, lumaRows)

	chromaWidth := (displayWidth + 1) / 2
	chromaRows := min((displayHeight+1)/2, layout.ChromaHeight)
	copyPlane(dst.Bits[layout.VOffset:layout.UOffset], layout.ChromaStride, planes[2], chromaWidth, chromaRows)
	copyPlane(dst.Bits[layout.UOffset:layout.Size], layout.ChromaStride, planes[1], chromaWidth, chromaRows)
	return nil
}

func copyPlane(
	dst []byte,
	dstStride int,
	src Plane,
	width, rows int,
) {
	width = min(width, dstStride)
	if src.Stride > 0 {
		width = min(width, src.Stride)
	}
	for row := 0; row < rows; row++ {
		dstOffset := row * dstStride
		srcOffset := row * src.Stride
		if dstOffset >= len(dst) || srcOffset >= len(src.Data) {
			return
		}
		copy(dst[dstOffset:min(dstOffset+width, len(dst))], src.Data[srcOffset:min(srcOffset+width, len(src.Data))])
	}
}
