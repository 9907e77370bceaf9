package scene

import "github.com/achilleasa/prism/types"

// Bvh nodes are comprised of two Vec3 and two multipurpose int32 parameters
// whose value depends on the node type:
//
// - For inner nodes (BLAS/TLAS) they are both >0 and point to the L/R child nodes
// - For leafs:
//   - left W is <= 0 and its negated value points to the first entry in the
//     owning structure's index list (primitive indices for a BLAS, instance
//     indices for a TLAS)
//   - right W is >0 and contains the count of leaf entries
//
// Node 0 is always the root, so child indices are always >0.
type BvhNode struct {
	Min   types.Vec3
	LData int32

	Max   types.Vec3
	RData int32
}

// Set bounding box.
func (n *BvhNode) SetBBox(bbox [2]types.Vec3) {
	n.Min = bbox[0]
	n.Max = bbox[1]
}

// Get bounding box.
func (n *BvhNode) BBox() [2]types.Vec3 {
	return [2]types.Vec3{n.Min, n.Max}
}

// Check if this is a leaf node.
func (n *BvhNode) IsLeaf() bool {
	return n.LData <= 0
}

// Set left and right child node indices.
func (n *BvhNode) SetChildNodes(left, right uint32) {
	n.LData = int32(left)
	n.RData = int32(right)
}

// Get left and right child node indices.
func (n *BvhNode) GetChildNodes() (left, right uint32) {
	return uint32(n.LData), uint32(n.RData)
}

// Set the leaf's first index list entry and entry count.
func (n *BvhNode) SetPrimitives(first, count uint32) {
	n.LData = -int32(first)
	n.RData = int32(count)
}

// Get the leaf's first index list entry and entry count.
func (n *BvhNode) GetPrimitives() (first, count uint32) {
	return uint32(-n.LData), uint32(n.RData)
}
