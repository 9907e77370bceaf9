package bvh

import (
	"math"
	"time"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/types"
	"golang.org/x/sync/errgroup"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
	numAxes
)

const (
	// Axes whose centroid extent is below this threshold are not split.
	minSideLength float32 = 1e-5

	// Number of centroid bins evaluated per axis.
	numBins = 32

	// Nodes with at least this many items scan their axes in parallel.
	parallelScanItems = 2048
)

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic = surfaceAreaHeuristic{}
)

// The BoundedVolume interface is implemented by all triangles/instances that
// can be partitioned by the bvh builder.
type BoundedVolume interface {
	BBox() [2]types.Vec3
	Center() types.Vec3
}

// A callback that is called whenever the BVH builder creates a new leaf.
type LeafCallback func(leaf *scene.BvhNode, itemList []BoundedVolume)

// A split scoring strategy. Lower costs are better.
type ScoreStrategy interface {
	// Estimate the cost of tracing against count items enclosed by bbox.
	Cost(count int, bbox [2]types.Vec3) float32
}

// Items whose centroids fall in the same bin along an axis.
type bin struct {
	bbox  [2]types.Vec3
	count int
}

// The best split found along one axis.
type axisSplit struct {
	axis  Axis
	bin   int // items in bins [0, bin] go left
	score float32

	// Centroid range used to map items to bins.
	origin, scale float32
}

type stats struct {
	partitionedItems int
	totalItems       int
	nodes            int
	leafs            int
	maxDepth         int
}

type builder struct {
	logger log.Logger

	// Bvh nodes stored as a contiguous list
	nodes []scene.BvhNode

	leafCb        LeafCallback
	minLeafItems  int
	scoreStrategy ScoreStrategy

	stats stats
}

// Construct a BVH from a set of bounded volumes. The root node is always
// stored at index 0 and child nodes are always stored after their parent.
//
// Each node bins its items by centroid along every axis and evaluates the
// split between each pair of adjacent bins using the supplied strategy.
// Nodes with no more than minLeafItems items become leafs. Nodes whose
// items can not be split in a way that lowers their cost also become leafs
// regardless of their item count.
func Build(workList []BoundedVolume, minLeafItems int, leafCb LeafCallback, scoreStrategy ScoreStrategy) []scene.BvhNode {
	b := &builder{
		logger:        log.New("bvh builder"),
		nodes:         make([]scene.BvhNode, 0, 2*len(workList)),
		leafCb:        leafCb,
		minLeafItems:  minLeafItems,
		scoreStrategy: scoreStrategy,
		stats: stats{
			totalItems: len(workList),
		},
	}

	start := time.Now()
	b.partition(workList, 0)
	b.logger.Debugf(
		"BVH build time: %d ms, items: %d, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6, b.stats.totalItems,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)
	return b.nodes
}

// Partition worklist and return node index.
func (b *builder) partition(workList []BoundedVolume, depth int) uint32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	bbox, centroidBox := bounds(workList)
	node := scene.BvhNode{}
	node.SetBBox(bbox)

	if len(workList) <= b.minLeafItems {
		return b.createLeaf(&node, workList)
	}

	split := b.findSplit(workList, centroidBox)
	if split == nil || split.score >= b.scoreStrategy.Cost(len(workList), bbox) {
		return b.createLeaf(&node, workList)
	}

	left := make([]BoundedVolume, 0, len(workList)/2)
	right := make([]BoundedVolume, 0, len(workList)/2)
	for _, item := range workList {
		if binIndex(item.Center()[split.axis], split.origin, split.scale) <= split.bin {
			left = append(left, item)
		} else {
			right = append(right, item)
		}
	}

	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, node)
	b.stats.nodes++

	leftNodeIndex := b.partition(left, depth+1)
	rightNodeIndex := b.partition(right, depth+1)
	b.nodes[nodeIndex].SetChildNodes(leftNodeIndex, rightNodeIndex)

	return uint32(nodeIndex)
}

// Scan all axes and return the lowest cost split or nil if the items can
// not be separated.
func (b *builder) findSplit(workList []BoundedVolume, centroidBox [2]types.Vec3) *axisSplit {
	var splits [numAxes]*axisSplit

	if len(workList) < parallelScanItems {
		for axis := XAxis; axis < numAxes; axis++ {
			splits[axis] = b.scanAxis(workList, centroidBox, axis)
		}
	} else {
		var g errgroup.Group
		for axis := XAxis; axis < numAxes; axis++ {
			axis := axis
			g.Go(func() error {
				splits[axis] = b.scanAxis(workList, centroidBox, axis)
				return nil
			})
		}
		_ = g.Wait()
	}

	var best *axisSplit
	for _, split := range splits {
		if split != nil && (best == nil || split.score < best.score) {
			best = split
		}
	}
	return best
}

func (b *builder) scanAxis(workList []BoundedVolume, centroidBox [2]types.Vec3, axis Axis) *axisSplit {
	extent := centroidBox[1][axis] - centroidBox[0][axis]
	if extent < minSideLength {
		return nil
	}

	var bins [numBins]bin
	for i := range bins {
		bins[i].bbox = emptyBBox()
	}

	origin := centroidBox[0][axis]
	scale := float32(numBins) / extent
	for _, item := range workList {
		bi := binIndex(item.Center()[axis], origin, scale)
		bins[bi].count++
		bins[bi].bbox = union(bins[bi].bbox, item.BBox())
	}

	// Sweep from the right to collect suffix costs, then from the left
	// to score each split plane.
	var rightCost [numBins]float32
	rightBox := emptyBBox()
	rightCount := 0
	for i := numBins - 1; i > 0; i-- {
		rightBox = union(rightBox, bins[i].bbox)
		rightCount += bins[i].count
		rightCost[i] = b.scoreStrategy.Cost(rightCount, rightBox)
	}

	var best *axisSplit
	leftBox := emptyBBox()
	leftCount := 0
	for i := 0; i < numBins-1; i++ {
		leftBox = union(leftBox, bins[i].bbox)
		leftCount += bins[i].count
		if leftCount == 0 || leftCount == len(workList) {
			continue
		}

		score := b.scoreStrategy.Cost(leftCount, leftBox) + rightCost[i+1]
		if best == nil || score < best.score {
			best = &axisSplit{axis: axis, bin: i, score: score, origin: origin, scale: scale}
		}
	}
	return best
}

// Setup the given node item as a leaf node containing all items in the work list.
// Returns the index to the node in the bvh node array.
func (b *builder) createLeaf(node *scene.BvhNode, workList []BoundedVolume) uint32 {
	b.leafCb(node, workList)

	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, *node)

	b.stats.leafs++
	b.stats.partitionedItems += len(workList)

	return uint32(nodeIndex)
}

func binIndex(c, origin, scale float32) int {
	bi := int((c - origin) * scale)
	if bi < 0 {
		return 0
	} else if bi >= numBins {
		return numBins - 1
	}
	return bi
}

// Calculate the bbox enclosing all items and the bbox enclosing their centroids.
func bounds(workList []BoundedVolume) (bbox, centroidBox [2]types.Vec3) {
	bbox, centroidBox = emptyBBox(), emptyBBox()
	for _, item := range workList {
		bbox = union(bbox, item.BBox())
		c := item.Center()
		centroidBox = union(centroidBox, [2]types.Vec3{c, c})
	}
	return bbox, centroidBox
}

func emptyBBox() [2]types.Vec3 {
	return [2]types.Vec3{
		{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

func union(a, b [2]types.Vec3) [2]types.Vec3 {
	return [2]types.Vec3{types.MinVec3(a[0], b[0]), types.MaxVec3(a[1], b[1])}
}

// A score implementation that uses the surface area heuristic.
type surfaceAreaHeuristic struct{}

// Score a set of items using the formula (lower is better):
//
// count * half BBOX surface area
//
// Empty sets get the worst possible score (MaxFloat32).
func (h surfaceAreaHeuristic) Cost(count int, bbox [2]types.Vec3) float32 {
	if count == 0 {
		return math.MaxFloat32
	}

	side := bbox[1].Sub(bbox[0])
	return float32(count) * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}
