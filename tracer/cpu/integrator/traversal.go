package integrator

import (
	"math"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/types"
)

// Determinants below this value are treated as rays parallel to the triangle.
const parallelEpsilon = 1e-12

// Find the nearest intersection (or the first accepted one for rays that
// terminate on first hit) in [req.TMin, req.TMax]. The TLAS is walked in
// world space; candidate instances transform the ray into object space and
// walk their BLAS. Object space rays keep the world space parametrization so
// hit distances are comparable across instances.
func (ctx *Context) traverse(req TraceRequest) (Hit, bool) {
	sc := ctx.Params.Scene
	tlas := &sc.Tlas
	if len(tlas.Nodes) == 0 {
		return Hit{}, false
	}

	var closest Hit
	found := false
	tMax := req.TMax
	invDir := inverse(req.Direction)
	terminateOnFirst := req.Flags&RayFlagTerminateOnFirstHit != 0
	cullBackFaces := req.Flags&RayFlagCullBackFacingTriangles != 0

	stack := append(ctx.tlasStack[:0], 0)
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &tlas.Nodes[nodeIndex]
		if !intersectBox(req.Origin, invDir, node.Min, node.Max, req.TMin, tMax) {
			continue
		}

		if !node.IsLeaf() {
			left, right := node.GetChildNodes()
			stack = append(stack, right, left)
			continue
		}

		first, count := node.GetPrimitives()
		for _, instanceID := range tlas.InstanceIndices[first : first+count] {
			inst := &tlas.Instances[instanceID]
			if inst.Mask&req.CullMask == 0 {
				continue
			}

			cullBack := cullBackFaces && inst.Flags&scene.InstanceTriangleCullDisable == 0
			objOrigin := inst.InvTransform.MulPoint(req.Origin)
			objDir := inst.InvTransform.MulDir(req.Direction)
			primID, t, bary, ok := ctx.traverseBlas(&sc.BlasList[inst.BlasIndex], sc, objOrigin, objDir, req.TMin, tMax, terminateOnFirst, cullBack)
			if !ok {
				continue
			}

			tMax = t
			found = true
			closest = Hit{
				InstanceID:   instanceID,
				PrimitiveID:  primID,
				CustomIndex:  inst.CustomIndex,
				Barycentrics: bary,
				T:            t,
			}
			if terminateOnFirst {
				ctx.tlasStack = stack
				return closest, true
			}
		}
	}

	ctx.tlasStack = stack
	return closest, found
}

// Walk a BLAS with an object space ray and return the nearest triangle hit
// within [tMin, tMax]. If cullBack is set, triangles whose counter-clockwise
// side faces away from the ray are skipped.
func (ctx *Context) traverseBlas(blas *scene.Blas, sc *scene.Scene, origin, dir types.Vec3, tMin, tMax float32, terminateOnFirst, cullBack bool) (uint32, float32, types.Vec2, bool) {
	if len(blas.Nodes) == 0 {
		return 0, 0, types.Vec2{}, false
	}

	vertices := sc.Geometry.Vertices(blas.VertexBuffer)
	triangles := sc.Geometry.Triangles(blas.IndexBuffer)
	invDir := inverse(dir)

	var (
		hitPrim uint32
		hitBary types.Vec2
		found   bool
	)

	stack := append(ctx.blasStack[:0], 0)
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &blas.Nodes[nodeIndex]
		if !intersectBox(origin, invDir, node.Min, node.Max, tMin, tMax) {
			continue
		}

		if !node.IsLeaf() {
			left, right := node.GetChildNodes()
			stack = append(stack, right, left)
			continue
		}

		first, count := node.GetPrimitives()
		for _, primID := range blas.PrimitiveIndices[first : first+count] {
			tri := triangles[primID]
			t, u, v, ok := intersectTriangle(origin, dir, vertices[tri[0]].Position, vertices[tri[1]].Position, vertices[tri[2]].Position, cullBack)
			if !ok || t < tMin || t > tMax {
				continue
			}

			tMax = t
			hitPrim = primID
			hitBary = types.Vec2{u, v}
			found = true
			if terminateOnFirst {
				ctx.blasStack = stack
				return hitPrim, tMax, hitBary, true
			}
		}
	}

	ctx.blasStack = stack
	return hitPrim, tMax, hitBary, found
}

// Slab test against an AABB. Boundary contacts count as hits so that flat
// boxes around planar geometry are never skipped.
func intersectBox(origin, invDir, bmin, bmax types.Vec3, tMin, tMax float32) bool {
	for axis := 0; axis < 3; axis++ {
		t0 := (bmin[axis] - origin[axis]) * invDir[axis]
		t1 := (bmax[axis] - origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		// NaN (0 * Inf) comparisons are false and leave the interval untouched.
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMax < tMin {
			return false
		}
	}
	return true
}

// Moller-Trumbore ray/triangle intersection. The front face is the one whose
// vertices appear counter-clockwise; back faces are rejected when cullBack is
// set. Returns the hit distance and the barycentric weights of v1 and v2.
func intersectTriangle(origin, dir, v0, v1, v2 types.Vec3, cullBack bool) (t, u, v float32, ok bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if cullBack && det < parallelEpsilon {
		return 0, 0, 0, false
	} else if math.Abs(float64(det)) < parallelEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	s := origin.Sub(v0)
	u = s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v = dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(q) * invDet
	return t, u, v, true
}

func inverse(dir types.Vec3) types.Vec3 {
	var inv types.Vec3
	for axis := 0; axis < 3; axis++ {
		inv[axis] = float32(1.0 / float64(dir[axis]))
	}
	return inv
}
