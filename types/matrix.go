package types

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Matrices are stored in column-major order.
type Mat3 mgl32.Mat3
type Mat4 mgl32.Mat4

const (
	floatCmpEpsilon = 1e-6

	// Absolute tolerance for matrix comparisons.
	matCmpEpsilon float32 = 1e-5
)

// Return the 4x4 identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Return the 3x3 identity matrix.
func Ident3() Mat3 {
	return Mat3(mgl32.Ident3())
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Create a scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(v[0], v[1], v[2]))
}

// Create a perspective projection matrix. The fov is specified in degrees.
func Perspective4(fovY, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fovY), aspect, near, far))
}

// Create a view matrix looking from eye towards center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Multiply two 4x4 matrices.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply matrix with a 4 component column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Transform a point (w = 1) and drop the w component.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

// Transform a direction (w = 0) and drop the w component.
func (m Mat4) MulDir(v Vec3) Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}

// Calculate the matrix determinant.
func (m Mat4) Det() float32 {
	return mgl32.Mat4(m).Det()
}

// Calculate the matrix inverse. A singular matrix yields the zero matrix.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Check whether the matrix can be inverted.
func (m Mat4) Invertible() bool {
	det := float64(m.Det())
	return det != 0 && !math.IsNaN(det) && !math.IsInf(det, 0)
}

// Transpose matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4(mgl32.Mat4(m).Transpose())
}

// Compare two matrices component-wise using an absolute epsilon value.
func (m Mat4) ApproxEqual(m2 Mat4) bool {
	for i := range m {
		if float32(math.Abs(float64(m[i]-m2[i]))) > matCmpEpsilon {
			return false
		}
	}
	return true
}

// Extract the top-left 3x3 matrix from a 4x4 matrix.
func (m Mat4) Mat3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Multiply matrix with a 3 component column vector.
func (m Mat3) Mul3x1(v Vec3) Vec3 {
	return Vec3(mgl32.Mat3(m).Mul3x1(mgl32.Vec3(v)))
}

// Calculate the 3x3 matrix inverse.
func (m Mat3) Inv() Mat3 {
	return Mat3(mgl32.Mat3(m).Inv())
}

// Transpose matrix.
func (m Mat3) Transpose() Mat3 {
	return Mat3(mgl32.Mat3(m).Transpose())
}

// Calculate the matrix that transforms normals from object to world space
// (the inverse transpose of the upper 3x3 part of m).
func NormalMat3(m Mat4) Mat3 {
	return m.Mat3().Inv().Transpose()
}

// Transform an AABB and return the AABB enclosing its 8 transformed corners.
func TransformBBox(m Mat4, bbox [2]Vec3) [2]Vec3 {
	out := [2]Vec3{
		{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for corner := 0; corner < 8; corner++ {
		p := Vec3{
			bbox[corner&1][0],
			bbox[(corner>>1)&1][1],
			bbox[(corner>>2)&1][2],
		}
		p = m.MulPoint(p)
		out[0] = MinVec3(out[0], p)
		out[1] = MaxVec3(out[1], p)
	}
	return out
}

// Create a rotation matrix from per-axis angles (radians) applied in X, Y, Z order.
func RotateXYZ4(angles Vec3) Mat4 {
	rx := mgl32.HomogRotate3DX(angles[0])
	ry := mgl32.HomogRotate3DY(angles[1])
	rz := mgl32.HomogRotate3DZ(angles[2])
	return Mat4(rz.Mul4(ry.Mul4(rx)))
}
