package elastix

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	recordParameters = "TransformParameters"
	recordCenter     = "CenterOfRotationPoint"
	recordTransform  = "Transform"
	recordComputeZYX = "ComputeZYX"
)

// Record is the rigid (Euler) part of an elastix TransformParameters file
type Record struct {
	// Angles are the rotations around X, Y and Z in radians
	Angles      mgl64.Vec3
	Translation mgl64.Vec3
	Center      mgl64.Vec3
}

// ParseError reports a malformed parameter file
type ParseError struct {
	File string
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return "invalid elastix parameter file: " + e.Msg
	}
	return fmt.Sprintf("invalid elastix parameter file %s: %s", e.File, e.Msg)
}

// Parser reads elastix transform parameter files
type Parser struct{}

// NewParser creates a new elastix parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the parameter file at filename
func (p *Parser) Parse(filename string) (*Record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	rec, err := p.Read(file)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = filename
		}
		return nil, err
	}
	return rec, nil
}

// Read parses a parameter file from r.
// Records look like "(Name value value ...)" and may span several lines.
func (p *Parser) Read(r io.Reader) (*Record, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	if values, ok := records[recordTransform]; ok {
		if len(values) != 1 || unquote(values[0]) != "EulerTransform" {
			return nil, &ParseError{Msg: fmt.Sprintf("unsupported transform %s, only EulerTransform is supported", strings.Join(values, " "))}
		}
	}
	if values, ok := records[recordComputeZYX]; ok && len(values) == 1 && unquote(values[0]) == "true" {
		return nil, &ParseError{Msg: "ComputeZYX rotation order is not supported"}
	}

	params, ok := records[recordParameters]
	if !ok {
		return nil, &ParseError{Msg: "missing (TransformParameters ...) record"}
	}
	if len(params) != 6 {
		return nil, &ParseError{Msg: fmt.Sprintf("TransformParameters has %d values, expected 6 (3 rotations, 3 translations)", len(params))}
	}
	numbers, err := parseNumbers(recordParameters, params, false)
	if err != nil {
		return nil, err
	}

	center, ok := records[recordCenter]
	if !ok {
		return nil, &ParseError{Msg: "missing (CenterOfRotationPoint ...) record"}
	}
	if len(center) != 3 {
		return nil, &ParseError{Msg: fmt.Sprintf("CenterOfRotationPoint has %d values, expected 3", len(center))}
	}
	c, err := parseNumbers(recordCenter, center, true)
	if err != nil {
		return nil, err
	}

	return &Record{
		Angles:      mgl64.Vec3{numbers[0], numbers[1], numbers[2]},
		Translation: mgl64.Vec3{numbers[3], numbers[4], numbers[5]},
		Center:      mgl64.Vec3{c[0], c[1], c[2]},
	}, nil
}

// readRecords collects the raw values of every record in the stream.
// A later record with the same name replaces an earlier one.
func readRecords(r io.Reader) (map[string][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	records := make(map[string][]string)
	for scanner.Scan() {
		token := scanner.Text()
		if !strings.HasPrefix(token, "(") {
			continue
		}

		name := strings.TrimPrefix(token, "(")
		if strings.HasSuffix(name, ")") {
			records[strings.TrimSuffix(name, ")")] = nil
			continue
		}

		var values []string
		closed := false
		for scanner.Scan() {
			token = scanner.Text()
			if strings.HasSuffix(token, ")") {
				if v := strings.TrimSuffix(token, ")"); v != "" {
					values = append(values, v)
				}
				closed = true
				break
			}
			values = append(values, token)
		}
		if !closed {
			return nil, &ParseError{Msg: fmt.Sprintf("record (%s is not closed", name)}
		}
		records[name] = values
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading parameter file: %w", err)
	}
	return records, nil
}

func parseNumbers(record string, values []string, stripUnit bool) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		if stripUnit {
			v = strings.TrimRightFunc(v, unicode.IsLetter)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &ParseError{Msg: fmt.Sprintf("%s: invalid number %q", record, values[i])}
		}
		out[i] = f
	}
	return out, nil
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}
