package layout

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// VertexSize is the size of one encoded vertex in bytes.
const VertexSize = 32

// IndexFormat is the GPU format of Layout.Indices.
const IndexFormat = gputypes.IndexFormatUint32

// Vertex is one corner of a glyph quad.
type Vertex struct {
	X, Y       float32 // position in pixels
	U, V       float32 // atlas texture coordinate
	R, G, B, A float32
}

// VertexBufferLayout describes VertexBytes for a render pipeline:
// position at location 0, texture coordinate at 1 and color at 2.
func VertexBufferLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // uv
			{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2}, // color
		},
	}
}

// VertexBytes encodes the vertices as little-endian float32s, VertexSize
// bytes each, ready for upload.
func (l *Layout) VertexBytes() []byte {
	b := make([]byte, 0, len(l.Vertices)*VertexSize)
	for _, v := range l.Vertices {
		for _, f := range [...]float32{v.X, v.Y, v.U, v.V, v.R, v.G, v.B, v.A} {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
		}
	}
	return b
}

// IndexBytes encodes the indices as little-endian uint32s.
func (l *Layout) IndexBytes() []byte {
	b := make([]byte, 0, len(l.Indices)*4)
	for _, i := range l.Indices {
		b = binary.LittleEndian.AppendUint32(b, i)
	}
	return b
}
