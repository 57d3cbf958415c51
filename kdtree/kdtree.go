package kdtree

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/blockspacer/kdtracer/geometry"
	"github.com/blockspacer/kdtracer/log"
	"github.com/olekukonko/tablewriter"
)

const (
	// Nodes at this depth always become leaves.
	MaxDepth = 20

	// Nodes holding fewer triangles than this always become leaves.
	minSplitTriangles = 3
)

// A KD tree node. Internal nodes own exactly two children; leaves own a list
// of indices into the tree's triangle slice.
type Node struct {
	BBox  geometry.BoundingBox
	Depth int

	// The splitting plane shared by the children's boxes.
	SplitAxis int
	SplitPos  float64

	Left, Right *Node

	Triangles []int
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Left == nil
}

// Tree build statistics.
type Stats struct {
	Nodes          int
	Leaves         int
	EmptyLeaves    int
	MaxDepth       int
	Triangles      int
	TriangleRefs   int
	MaxLeafSize    int
	BuildTime      time.Duration
	DepthCapLeaves int
}

// Build a tabular representation of the tree statistics.
func (s Stats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"KD tree", "Value"})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", s.Nodes)})
	table.Append([]string{"Leaves", fmt.Sprintf("%d (%d empty)", s.Leaves, s.EmptyLeaves)})
	table.Append([]string{"Max depth", fmt.Sprintf("%d (%d leaves at cap)", s.MaxDepth, s.DepthCapLeaves)})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", s.Triangles)})
	table.Append([]string{"Triangle refs", fmt.Sprintf("%d (x%.2f)", s.TriangleRefs, s.duplication())})
	table.Append([]string{"Max leaf size", fmt.Sprintf("%d", s.MaxLeafSize)})
	table.SetFooter([]string{"Build time", s.BuildTime.String()})
	table.Render()
	return buf.String()
}

func (s Stats) duplication() float64 {
	if s.Triangles == 0 {
		return 0
	}
	return float64(s.TriangleRefs) / float64(s.Triangles)
}

// A KD tree over a triangle soup. The tree references (but does not own)
// the triangle slice; it must not be modified while the tree is in use.
type Tree struct {
	Root *Node

	triangles []geometry.Triangle
	bounds    geometry.BoundingBox
	stats     Stats
}

type builder struct {
	logger    log.Logger
	triangles []geometry.Triangle
	stats     Stats
}

// Build a KD tree over all triangles inside bounds. Triangles must be valid
// and each triangle's ID must equal its index in the slice.
//
// Nodes are split at the mean of the contained triangle centroids along the
// longest axis of the node box. Triangles straddling the plane are referenced
// by both children.
//
// Besides the size and depth limits, a node also becomes a leaf when
// splitting it would leave each child either empty or holding all of the
// node's triangles.
func Build(triangles []geometry.Triangle, bounds geometry.BoundingBox) *Tree {
	b := &builder{
		logger:    log.New("kd-tree"),
		triangles: triangles,
		stats: Stats{
			Triangles: len(triangles),
		},
	}

	start := time.Now()
	indices := make([]int, len(triangles))
	for i := range indices {
		indices[i] = i
	}
	root := &Node{BBox: bounds}
	b.expand(root, indices)
	b.stats.BuildTime = time.Since(start)

	b.logger.Debugf(
		"KD tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, triangle refs: %d\n",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leaves, b.stats.TriangleRefs,
	)

	return &Tree{
		Root:      root,
		triangles: triangles,
		bounds:    bounds,
		stats:     b.stats,
	}
}

// Partition the triangles referenced by indices under node.
func (b *builder) expand(node *Node, indices []int) {
	b.stats.Nodes++
	if node.Depth > b.stats.MaxDepth {
		b.stats.MaxDepth = node.Depth
	}

	if len(indices) < minSplitTriangles || node.Depth == MaxDepth {
		b.createLeaf(node, indices)
		return
	}

	var median [3]float64
	for _, index := range indices {
		mid := b.triangles[index].MidPoint()
		median[0] += mid[0]
		median[1] += mid[1]
		median[2] += mid[2]
	}
	scale := 1.0 / float64(len(indices))
	axis := node.BBox.LongestAxis()
	pos := math.Max(node.BBox.Min[axis], math.Min(node.BBox.Max[axis], median[axis]*scale))

	var point [3]float64
	point[axis] = pos

	leftList := make([]int, 0, len(indices)/2+1)
	rightList := make([]int, 0, len(indices)/2+1)
	for _, index := range indices {
		var left, right int
		for _, side := range b.triangles[index].ParallelPlaneSide(point, axis) {
			switch side {
			case geometry.Left:
				left++
			case geometry.Right:
				right++
			}
		}

		switch {
		case left == 0 && right > 0:
			rightList = append(rightList, index)
		case right == 0:
			leftList = append(leftList, index)
		default:
			leftList = append(leftList, index)
			rightList = append(rightList, index)
		}
	}

	// Splitting is pointless if no child ends up with fewer triangles.
	noProgress := func(list []int) bool { return len(list) == 0 || len(list) == len(indices) }
	if noProgress(leftList) && noProgress(rightList) {
		b.createLeaf(node, indices)
		return
	}

	leftBox, rightBox := node.BBox.Split(axis, pos)
	node.SplitAxis = axis
	node.SplitPos = pos
	node.Left = &Node{BBox: leftBox, Depth: node.Depth + 1}
	node.Right = &Node{BBox: rightBox, Depth: node.Depth + 1}

	b.expand(node.Left, leftList)
	b.expand(node.Right, rightList)
}

func (b *builder) createLeaf(node *Node, indices []int) {
	node.Triangles = indices

	b.stats.Leaves++
	b.stats.TriangleRefs += len(indices)
	if len(indices) == 0 {
		b.stats.EmptyLeaves++
	}
	if len(indices) > b.stats.MaxLeafSize {
		b.stats.MaxLeafSize = len(indices)
	}
	if node.Depth == MaxDepth {
		b.stats.DepthCapLeaves++
	}
}

// Get the statistics collected while building the tree.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Get the bounds the tree was built over.
func (t *Tree) Bounds() geometry.BoundingBox {
	return t.bounds
}

// Trace ray through the tree. Returns true if any triangle was hit; the ray
// carries the best hit. In Any mode the traversal stops at the first hit.
func (t *Tree) Intersects(ray *geometry.Ray) bool {
	if t.Root == nil {
		return false
	}
	return t.intersectNode(t.Root, ray)
}

func (t *Tree) intersectNode(node *Node, ray *geometry.Ray) bool {
	if !node.BBox.Intersects(ray) {
		return false
	}

	if node.IsLeaf() {
		hit := false
		for _, index := range node.Triangles {
			if t.triangles[index].Intersects(ray).IsHit() {
				hit = true
				if ray.Mode == geometry.Any {
					return true
				}
			}
		}
		return hit
	}

	// Visit the child containing the ray origin first so that the nearest
	// hit tightens BestDistanceSq before the far child is scanned.
	first, second := node.Left, node.Right
	if ray.Origin[node.SplitAxis] > node.SplitPos {
		first, second = second, first
	}

	hit := t.intersectNode(first, ray)
	if hit && ray.Mode == geometry.Any {
		return true
	}
	if t.intersectNode(second, ray) {
		hit = true
	}
	return hit
}
