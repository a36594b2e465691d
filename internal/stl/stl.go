package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3 is a single precision point or direction as stored in STL files
type Vector3 struct {
	X, Y, Z float32
}

// Triangle represents a triangle in 3D space
type Triangle struct {
	Normal     Vector3
	V1, V2, V3 Vector3
}

// Mesh represents an STL mesh
type Mesh struct {
	Name      string
	Triangles []Triangle
}

const (
	headerSize   = 80
	triangleSize = 50
)

// Parser parses STL files
type Parser struct{}

// NewParser creates a new STL parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads an STL file and returns the mesh data
func (p *Parser) Parse(filename string) (*Mesh, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open file: %w", err)
	}

	mesh, err := p.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if mesh.Name == "" {
		mesh.Name = filepath.Base(filename)
	}
	return mesh, nil
}

// Decode parses ASCII or binary STL data
func (p *Parser) Decode(data []byte) (*Mesh, error) {
	if isASCII(data) {
		return p.parseASCII(bytes.NewReader(data))
	}
	return p.parseBinary(bytes.NewReader(data))
}

// isASCII reports whether data looks like an ASCII STL.
// Some exporters write "solid" into binary headers too, so a size that
// matches the binary layout wins.
func isASCII(data []byte) bool {
	if !bytes.HasPrefix(data, []byte("solid")) {
		return false
	}
	if len(data) >= headerSize+4 {
		count := binary.LittleEndian.Uint32(data[headerSize:])
		if len(data) == headerSize+4+int(count)*triangleSize {
			return false
		}
	}
	return true
}

// parseASCII parses an ASCII STL file
func (p *Parser) parseASCII(reader io.Reader) (*Mesh, error) {
	scanner := bufio.NewScanner(reader)
	mesh := &Mesh{Triangles: []Triangle{}}

	var current Triangle
	var vertexCount int
	line := 0

	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				mesh.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("line %d: malformed facet", line)
			}
			n, err := parseVector(fields[2:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			current = Triangle{Normal: n}
			vertexCount = 0
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: malformed vertex", line)
			}
			v, err := parseVector(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			switch vertexCount {
			case 0:
				current.V1 = v
			case 1:
				current.V2 = v
			case 2:
				current.V3 = v
			default:
				return nil, fmt.Errorf("line %d: facet has more than 3 vertices", line)
			}
			vertexCount++
		case "endfacet":
			if vertexCount != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices", line, vertexCount)
			}
			mesh.Triangles = append(mesh.Triangles, current)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return mesh, nil
}

func parseVector(fields []string) (Vector3, error) {
	var out [3]float32
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return Vector3{}, fmt.Errorf("invalid number %q", f)
		}
		out[i] = float32(v)
	}
	return Vector3{out[0], out[1], out[2]}, nil
}

// parseBinary parses a binary STL file
func (p *Parser) parseBinary(reader io.Reader) (*Mesh, error) {
	mesh := &Mesh{}

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	mesh.Name = strings.TrimSpace(strings.TrimRight(string(header), "\x00"))

	var triangleCount uint32
	if err := binary.Read(reader, binary.LittleEndian, &triangleCount); err != nil {
		return nil, fmt.Errorf("error reading triangle count: %w", err)
	}

	mesh.Triangles = make([]Triangle, triangleCount)
	for i := uint32(0); i < triangleCount; i++ {
		// Triangle has the exact binary layout of normal and vertices
		if err := binary.Read(reader, binary.LittleEndian, &mesh.Triangles[i]); err != nil {
			return nil, fmt.Errorf("error reading triangle %d: %w", i+1, err)
		}

		var attributeCount uint16
		if err := binary.Read(reader, binary.LittleEndian, &attributeCount); err != nil {
			return nil, fmt.Errorf("error reading attribute count: %w", err)
		}
	}

	return mesh, nil
}

// Transform returns a copy of the mesh with every vertex mapped by m.
// Normals are rotated by the upper 3x3 block of m and renormalized.
func (mesh *Mesh) Transform(m mgl64.Mat4) *Mesh {
	rot := m.Mat3()
	out := &Mesh{Name: mesh.Name, Triangles: make([]Triangle, len(mesh.Triangles))}

	point := func(v Vector3) Vector3 {
		return fromVec(mgl64.TransformCoordinate(toVec(v), m))
	}

	for i, tri := range mesh.Triangles {
		n := rot.Mul3x1(toVec(tri.Normal))
		if n.Len() > 0 {
			n = n.Normalize()
		}
		out.Triangles[i] = Triangle{
			Normal: fromVec(n),
			V1:     point(tri.V1),
			V2:     point(tri.V2),
			V3:     point(tri.V3),
		}
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the mesh
func (mesh *Mesh) Bounds() (lo, hi mgl64.Vec3) {
	if len(mesh.Triangles) == 0 {
		return
	}
	lo = toVec(mesh.Triangles[0].V1)
	hi = lo
	for _, tri := range mesh.Triangles {
		for _, v := range []Vector3{tri.V1, tri.V2, tri.V3} {
			p := toVec(v)
			for i := 0; i < 3; i++ {
				lo[i] = math.Min(lo[i], p[i])
				hi[i] = math.Max(hi[i], p[i])
			}
		}
	}
	return lo, hi
}

func toVec(v Vector3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

func fromVec(v mgl64.Vec3) Vector3 {
	return Vector3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// Writer writes binary STL files
type Writer struct{}

// NewWriter creates a new STL writer
func NewWriter() *Writer {
	return &Writer{}
}

// Write stores mesh as binary STL in filename
func (w *Writer) Write(filename string, mesh *Mesh) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}

	buf := bufio.NewWriter(file)
	if err := w.Encode(buf, mesh); err != nil {
		file.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	return file.Close()
}

// Encode writes mesh as binary STL
func (w *Writer) Encode(out io.Writer, mesh *Mesh) error {
	header := make([]byte, headerSize)
	copy(header, mesh.Name)
	if _, err := out.Write(header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	if err := binary.Write(out, binary.LittleEndian, uint32(len(mesh.Triangles))); err != nil {
		return fmt.Errorf("error writing triangle count: %w", err)
	}

	for i := range mesh.Triangles {
		if err := binary.Write(out, binary.LittleEndian, &mesh.Triangles[i]); err != nil {
			return fmt.Errorf("error writing triangle %d: %w", i+1, err)
		}
		if err := binary.Write(out, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("error writing attribute count: %w", err)
		}
	}
	return nil
}
