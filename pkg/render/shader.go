package render

import (
	"image/color"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// Shader is the programmable part of the pipeline.
//
// Vertex is called for corners 0, 1 and 2 of a face, in that order, before
// the face is rasterized. It returns the homogeneous window position of the
// corner (the vertex already multiplied by Viewport*Projection*View*Model)
// and may record per-corner varyings for Fragment.
//
// Fragment is called for each covered pixel that passes the depth test, with
// the window position (x, y, depth) and the barycentric weights of the pixel.
// Returning true discards the fragment: nothing is written.
type Shader interface {
	Vertex(face, corner int) math3d.Vec4
	Fragment(frag, bar math3d.Vec3) (color.RGBA, bool)
}
