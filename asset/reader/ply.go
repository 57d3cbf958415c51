package reader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/blockspacer/kdtracer/asset"
	"github.com/blockspacer/kdtracer/scene"
	"github.com/blockspacer/kdtracer/types"
)

// Supported PLY encodings.
const (
	plyASCII        = "ascii"
	plyBinaryLE     = "binary_little_endian"
	plyBinaryBE     = "binary_big_endian"
	plyVertexElem   = "vertex"
	plyFaceElem     = "face"
	plyMaxListCount = 1 << 16
)

type plyProperty struct {
	Name string

	// Scalar type; for lists the type of the list items.
	Type string

	IsList    bool
	CountType string

	// Destination vertex component for x/y/z, -1 otherwise.
	axis int
}

type plyElement struct {
	Name       string
	Count      int
	Properties []plyProperty
}

type plyHeader struct {
	Format   string
	Elements []plyElement
}

// A reader for Stanford PLY models.
type plyReader struct {
	header    plyHeader
	byteOrder binary.ByteOrder

	vertices     []types.Vec3
	faces        [][3]int
	skippedFaces int

	scratch [8]byte
}

func newPLYReader() *plyReader {
	return &plyReader{}
}

// Read model from a PLY resource. Polygons are triangulated as fans around
// their first vertex; faces with less than three vertices are skipped.
func (r *plyReader) Read(res *asset.Resource) (*scene.Model, error) {
	start := time.Now()
	in := bufio.NewReader(res)

	if err := r.parseHeader(in); err != nil {
		return nil, fmt.Errorf("reader: %s: %w", res.Path(), err)
	}

	var err error
	switch r.header.Format {
	case plyASCII:
		err = r.readASCII(in)
	case plyBinaryLE:
		r.byteOrder = binary.LittleEndian
		err = r.readBinary(in)
	case plyBinaryBE:
		r.byteOrder = binary.BigEndian
		err = r.readBinary(in)
	default:
		err = fmt.Errorf("unsupported format %q", r.header.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("reader: %s: %w", res.Path(), err)
	}

	if r.skippedFaces > 0 {
		logger.Warningf("%s: skipped %d face(s) with less than 3 vertices", res.Path(), r.skippedFaces)
	}

	model := scene.NewModel(path.Base(res.Path()), r.vertices, r.faces)
	logger.Infof(
		"parsed %s in %d ms: %d vertices, %d triangles",
		res.Path(), time.Since(start).Nanoseconds()/1e6, len(model.Vertices), len(model.Triangles),
	)
	return model, nil
}

func (r *plyReader) parseHeader(in *bufio.Reader) error {
	line, err := in.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "ply" {
		return fmt.Errorf("missing ply magic")
	}

	var current *plyElement
	for lineNum := 2; ; lineNum++ {
		line, err = in.ReadString('\n')
		if err != nil {
			return fmt.Errorf("unexpected end of header at line %d", lineNum)
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			return r.validateHeader()
		case "comment", "obj_info":
		case "format":
			if len(parts) < 3 {
				return fmt.Errorf("line %d: invalid format definition", lineNum)
			}
			r.header.Format = parts[1]
		case "element":
			if len(parts) < 3 {
				return fmt.Errorf("line %d: invalid element definition", lineNum)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return fmt.Errorf("line %d: invalid element count %q", lineNum, parts[2])
			}
			r.header.Elements = append(r.header.Elements, plyElement{Name: parts[1], Count: count})
			current = &r.header.Elements[len(r.header.Elements)-1]
		case "property":
			if current == nil {
				return fmt.Errorf("line %d: property defined outside of an element", lineNum)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNum, err)
			}
			current.Properties = append(current.Properties, prop)
		default:
			return fmt.Errorf("line %d: unexpected header keyword %q", lineNum, parts[0])
		}
	}
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	prop := plyProperty{axis: -1}
	if len(parts) >= 1 && parts[0] == "list" {
		if len(parts) < 4 {
			return prop, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.CountType = parts[1]
		prop.Type = parts[2]
		prop.Name = parts[3]
		if plyTypeSize(prop.CountType) == 0 {
			return prop, fmt.Errorf("unsupported list count type %q", prop.CountType)
		}
	} else {
		if len(parts) < 2 {
			return prop, fmt.Errorf("invalid property definition")
		}
		prop.Type = parts[0]
		prop.Name = parts[1]
	}

	if plyTypeSize(prop.Type) == 0 {
		return prop, fmt.Errorf("unsupported property type %q", prop.Type)
	}

	switch prop.Name {
	case "x":
		prop.axis = 0
	case "y":
		prop.axis = 1
	case "z":
		prop.axis = 2
	}
	return prop, nil
}

func (r *plyReader) validateHeader() error {
	for _, elem := range r.header.Elements {
		switch elem.Name {
		case plyVertexElem:
			var found [3]bool
			for _, prop := range elem.Properties {
				if prop.axis >= 0 && !prop.IsList {
					found[prop.axis] = true
				}
			}
			if !found[0] || !found[1] || !found[2] {
				return fmt.Errorf("vertex element must define x, y and z properties")
			}
		case plyFaceElem:
			if faceIndexProperty(elem) < 0 {
				return fmt.Errorf("face element must define a vertex_indices list")
			}
		}
	}
	return nil
}

// Get the index of the property holding the face vertex list.
func faceIndexProperty(elem plyElement) int {
	for i, prop := range elem.Properties {
		if prop.IsList && (prop.Name == "vertex_indices" || prop.Name == "vertex_index") {
			return i
		}
	}
	return -1
}

// Get the encoded size of a PLY scalar type or 0 if the type is unknown.
func plyTypeSize(typ string) int {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

// Emit the triangle fan for a polygon.
func (r *plyReader) addPolygon(indices []int) {
	if len(indices) < 3 {
		r.skippedFaces++
		return
	}
	for i := 1; i+1 < len(indices); i++ {
		r.faces = append(r.faces, [3]int{indices[0], indices[i], indices[i+1]})
	}
}

func (r *plyReader) readASCII(in *bufio.Reader) error {
	for _, elem := range r.header.Elements {
		faceProp := faceIndexProperty(elem)
		for row := 0; row < elem.Count; row++ {
			line, err := in.ReadString('\n')
			if err != nil && (err != io.EOF || line == "") {
				return fmt.Errorf("%s %d: unexpected end of data", elem.Name, row)
			}
			tokens := strings.Fields(line)

			var vertex types.Vec3
			var indices []int
			for propIndex, prop := range elem.Properties {
				count := 1
				if prop.IsList {
					if len(tokens) == 0 {
						return fmt.Errorf("%s %d: missing list count for %s", elem.Name, row, prop.Name)
					}
					if count, err = strconv.Atoi(tokens[0]); err != nil || count < 0 || count > plyMaxListCount {
						return fmt.Errorf("%s %d: invalid list count %q", elem.Name, row, tokens[0])
					}
					tokens = tokens[1:]
				}
				if len(tokens) < count {
					return fmt.Errorf("%s %d: missing values for %s", elem.Name, row, prop.Name)
				}

				for i := 0; i < count; i++ {
					val, err := strconv.ParseFloat(tokens[i], 64)
					if err != nil {
						return fmt.Errorf("%s %d: invalid value %q for %s", elem.Name, row, tokens[i], prop.Name)
					}
					switch {
					case elem.Name == plyVertexElem && prop.axis >= 0:
						vertex[prop.axis] = val
					case elem.Name == plyFaceElem && propIndex == faceProp:
						indices = append(indices, int(val))
					}
				}
				tokens = tokens[count:]
			}

			r.consume(elem, vertex, indices)
		}
	}
	return nil
}

func (r *plyReader) readBinary(in *bufio.Reader) error {
	var indices []int
	for _, elem := range r.header.Elements {
		faceProp := faceIndexProperty(elem)
		for row := 0; row < elem.Count; row++ {
			var vertex types.Vec3
			indices = indices[:0]

			for propIndex, prop := range elem.Properties {
				count := 1
				if prop.IsList {
					val, err := r.readScalar(in, prop.CountType)
					if err != nil {
						return fmt.Errorf("%s %d: %w", elem.Name, row, err)
					}
					if count = int(val); count < 0 || count > plyMaxListCount {
						return fmt.Errorf("%s %d: invalid list count %d", elem.Name, row, count)
					}
				}

				for i := 0; i < count; i++ {
					val, err := r.readScalar(in, prop.Type)
					if err != nil {
						return fmt.Errorf("%s %d: %w", elem.Name, row, err)
					}
					switch {
					case elem.Name == plyVertexElem && prop.axis >= 0:
						vertex[prop.axis] = val
					case elem.Name == plyFaceElem && propIndex == faceProp:
						indices = append(indices, int(val))
					}
				}
			}

			r.consume(elem, vertex, indices)
		}
	}
	return nil
}

func (r *plyReader) consume(elem plyElement, vertex types.Vec3, indices []int) {
	switch elem.Name {
	case plyVertexElem:
		r.vertices = append(r.vertices, vertex)
	case plyFaceElem:
		r.addPolygon(indices)
	}
}

// Read a binary scalar of the given PLY type and convert it to float64.
func (r *plyReader) readScalar(in io.Reader, typ string) (float64, error) {
	size := plyTypeSize(typ)
	buf := r.scratch[:size]
	if _, err := io.ReadFull(in, buf); err != nil {
		return 0, fmt.Errorf("unexpected end of data: %w", err)
	}

	switch typ {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(r.byteOrder.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(r.byteOrder.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(r.byteOrder.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(r.byteOrder.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(r.byteOrder.Uint32(buf))), nil
	default:
		return math.Float64frombits(r.byteOrder.Uint64(buf)), nil
	}
}
