package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/achilleasa/prism/types"
	"github.com/olekukonko/tablewriter"
)

// A point light.
type Light struct {
	Position types.Vec3
}

// A compiled scene ready to be traced. All data is read-only once compiled
// and may be shared by any number of concurrent tracers.
type Scene struct {
	// Owned vertex and index buffers.
	Geometry GeometryBuffers

	// Owned material tables; instances index into them via their custom index.
	MaterialTables [][]Material

	// One BLAS per mesh and one TLAS for the whole scene.
	BlasList []Blas
	Tlas     Tlas

	// One descriptor per TLAS instance in instance-id order.
	Descriptors []InstanceDescriptor

	// The scene camera and light.
	Camera *Camera
	Light  Light
}

// Get the descriptor for an instance id.
func (sc *Scene) Descriptor(instanceID uint32) *InstanceDescriptor {
	return &sc.Descriptors[instanceID]
}

// Get a material table by handle.
func (sc *Scene) MaterialTable(h TableHandle) []Material {
	return sc.MaterialTables[h]
}

// Count total triangles referenced by the scene meshes.
func (sc *Scene) TriangleCount() int {
	count := 0
	for _, ib := range sc.Geometry.IndexBuffers {
		count += len(ib)
	}
	return count
}

// Drop all scene buffers and acceleration structures. The scene can not be
// traced after it has been released.
func (sc *Scene) Release() {
	sc.Geometry.Release()
	sc.MaterialTables = nil
	sc.BlasList = nil
	sc.Tlas = Tlas{}
	sc.Descriptors = nil
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var vertexItems, indexItems, blasItems, matItems []interface{}
	for _, vb := range sc.Geometry.VertexBuffers {
		vertexItems = append(vertexItems, vb)
	}
	for _, ib := range sc.Geometry.IndexBuffers {
		indexItems = append(indexItems, ib)
	}
	for _, blas := range sc.BlasList {
		blasItems = append(blasItems, blas.Nodes, blas.PrimitiveIndices)
	}
	for _, mt := range sc.MaterialTables {
		matItems = append(matItems, mt)
	}
	tlasItems := []interface{}{sc.Tlas.Nodes, sc.Tlas.InstanceIndices, sc.Tlas.Instances}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", " ", fmtSize(concat(vertexItems, indexItems)...)})
	table.Append([]string{"", "Vertex buffers", fmt.Sprintf("%d", len(sc.Geometry.VertexBuffers)), fmtSize(vertexItems...)})
	table.Append([]string{"", "Triangles", fmt.Sprintf("%d", sc.TriangleCount()), fmtSize(indexItems...)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Acceleration", "---", " ", fmtSize(concat(blasItems, tlasItems)...)})
	table.Append([]string{"", "BLAS", fmt.Sprintf("%d", len(sc.BlasList)), fmtSize(blasItems...)})
	table.Append([]string{"", "TLAS instances", fmt.Sprintf("%d", len(sc.Tlas.Instances)), fmtSize(tlasItems...)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Materials", "---", " ", fmtSize(matItems...)})
	for tIndex, mt := range sc.MaterialTables {
		table.Append([]string{"", fmt.Sprintf("Table %d", tIndex), fmt.Sprintf("%d", len(mt)), fmtSize(mt)})
	}
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Descriptors", "---", fmt.Sprintf("%d", len(sc.Descriptors)), fmtSize(sc.Descriptors)})
	total := concat(vertexItems, indexItems, blasItems, tlasItems, matItems, []interface{}{sc.Descriptors})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(total...), " ")})

	table.Render()
	return buf.String()
}

func concat(lists ...[]interface{}) []interface{} {
	out := make([]interface{}, 0)
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
