package matfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// PrecisionDefault is the number of decimals used for on-screen matrices
	PrecisionDefault = 3
	// PrecisionHigh is the number of decimals used when saving to a file
	PrecisionHigh = 16
)

// ParsePrecision converts a precision preset name or a plain number of decimals
func ParsePrecision(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "high":
		return PrecisionHigh, nil
	case "default", "low":
		return PrecisionDefault, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 20 {
		return 0, fmt.Errorf("invalid precision %q (use default, high or 0-20)", s)
	}
	return n, nil
}

// Parser reads transformation matrix text files
type Parser struct{}

// NewParser creates a new matrix parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a matrix file from disk
func (p *Parser) Parse(filename string) (mgl64.Mat4, error) {
	file, err := os.Open(filename)
	if err != nil {
		return mgl64.Mat4{}, fmt.Errorf("cannot open matrix file: %w", err)
	}
	defer file.Close()

	m, err := p.Read(file)
	if err != nil {
		return mgl64.Mat4{}, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

// Read parses whitespace separated numbers from r.
// 16 numbers are a full 4x4 matrix, 12 numbers are the top 3 rows of an affine matrix.
// Lines starting with # are comments.
func (p *Parser) Read(r io.Reader) (mgl64.Mat4, error) {
	var values []float64

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return mgl64.Mat4{}, fmt.Errorf("line %d: invalid number %q", lineNo, field)
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return mgl64.Mat4{}, fmt.Errorf("error reading matrix: %w", err)
	}

	switch len(values) {
	case 16:
	case 12:
		values = append(values, 0, 0, 0, 1)
	default:
		return mgl64.Mat4{}, fmt.Errorf("expected 16 (4x4) or 12 (3x4) numbers, got %d", len(values))
	}

	return FromRows(values), nil
}

// FromRows builds a matrix from 16 row-major values
func FromRows(values []float64) mgl64.Mat4 {
	var m mgl64.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m.Set(i, j, values[i*4+j])
		}
	}
	return m
}

// Rows returns the 16 row-major values of m
func Rows(m mgl64.Mat4) [16]float64 {
	var out [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i*4+j] = m.At(i, j)
		}
	}
	return out
}

// Writer writes transformation matrix text files
type Writer struct {
	Precision int
}

// NewWriter creates a writer using the given number of decimals
func NewWriter(precision int) *Writer {
	return &Writer{Precision: precision}
}

// Write saves m to filename, truncating any existing file
func (w *Writer) Write(filename string, m mgl64.Mat4) error {
	var buf bytes.Buffer
	if err := w.Encode(&buf, m); err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("unable to write matrix file: %w", err)
	}
	return nil
}

// Encode writes four lines of four space separated numbers.
// Columns are right aligned so the output also reads well on a console.
func (w *Writer) Encode(out io.Writer, m mgl64.Mat4) error {
	cells := make([]string, 16)
	width := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			s := strconv.FormatFloat(m.At(i, j), 'f', w.Precision, 64)
			if s == "-"+strconv.FormatFloat(0, 'f', w.Precision, 64) {
				s = s[1:]
			}
			cells[i*4+j] = s
			if len(s) > width {
				width = len(s)
			}
		}
	}

	for i := 0; i < 4; i++ {
		row := make([]string, 4)
		for j := 0; j < 4; j++ {
			row[j] = fmt.Sprintf("%*s", width, cells[i*4+j])
		}
		if _, err := fmt.Fprintln(out, strings.Join(row, " ")); err != nil {
			return fmt.Errorf("error writing matrix: %w", err)
		}
	}
	return nil
}

// Format returns m as text with the writer's precision
func (w *Writer) Format(m mgl64.Mat4) string {
	var buf bytes.Buffer
	_ = w.Encode(&buf, m)
	return buf.String()
}
