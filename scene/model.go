package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/blockspacer/kdtracer/geometry"
	"github.com/blockspacer/kdtracer/kdtree"
	"github.com/blockspacer/kdtracer/log"
	"github.com/blockspacer/kdtracer/types"
	"github.com/olekukonko/tablewriter"
)

// A triangle soup together with the vertex storage its triangles index into.
//
// The vertex slice is owned by the model and must not be modified once the
// KD tree is built. Only valid triangles are stored; their ID matches their
// position in the Triangles slice.
type Model struct {
	Name string

	Vertices  []types.Vec3
	Triangles []geometry.Triangle

	// Number of faces rejected while building the model.
	DroppedTriangles int

	bounds geometry.BoundingBox
	tree   *kdtree.Tree
	logger log.Logger
}

// Create a model from a vertex list and a list of triangle vertex indices.
// Faces that produce invalid triangles are logged and dropped.
func NewModel(name string, vertices []types.Vec3, faces [][3]int) *Model {
	m := &Model{
		Name:      name,
		Vertices:  vertices,
		Triangles: make([]geometry.Triangle, 0, len(faces)),
		bounds:    geometry.NewBoundingBox(),
		logger:    log.New("model"),
	}

	for _, face := range faces {
		tri := geometry.NewTriangle(vertices, face[0], face[1], face[2])
		if !tri.Valid() {
			m.DroppedTriangles++
			continue
		}

		tri.ID = len(m.Triangles)
		m.Triangles = append(m.Triangles, tri)
		m.bounds.Extend(tri.V[0], tri.V[1], tri.V[2])
	}

	if m.DroppedTriangles > 0 {
		m.logger.Warningf("%s: dropped %d invalid triangle(s) out of %d", name, m.DroppedTriangles, len(faces))
	}

	return m
}

// Get the model bounds. The returned box is not valid for an empty model.
func (m *Model) Bounds() geometry.BoundingBox {
	return m.bounds
}

// Build a KD tree over the model triangles. Subsequent Intersect calls use
// the tree instead of scanning every triangle.
func (m *Model) BuildTree() *kdtree.Tree {
	m.tree = kdtree.Build(m.Triangles, m.bounds)
	return m.tree
}

// Get the model's KD tree or nil if BuildTree has not been called.
func (m *Model) Tree() *kdtree.Tree {
	return m.tree
}

// Find the ray's intersection with the model. The ray receives the best hit
// according to its mode. Returns true if any triangle was hit.
func (m *Model) Intersect(ray *geometry.Ray) bool {
	if m.tree != nil {
		return m.tree.Intersects(ray)
	}

	hit := false
	for i := range m.Triangles {
		if m.Triangles[i].Intersects(ray).IsHit() {
			hit = true
			if ray.Mode == geometry.Any {
				break
			}
		}
	}
	return hit
}

// Build a tabular representation of model statistics.
func (m *Model) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Model", "Count", "Size"})
	table.Append([]string{"Vertices", fmt.Sprintf("%d", len(m.Vertices)), fmtSize(m.Vertices)})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", len(m.Triangles)), fmtSize(m.Triangles)})
	table.Append([]string{"Dropped", fmt.Sprintf("%d", m.DroppedTriangles), " "})
	table.Append([]string{"Bounds min", m.bounds.Min.String(), " "})
	table.Append([]string{"Bounds max", m.bounds.Max.String(), " "})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(m.Vertices, m.Triangles), " ")})
	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float64
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float64(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
