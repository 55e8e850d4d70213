package export

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// WriteMatrix writes an 8-bit multi-channel image as `name = ` followed by a
// bracketed matrix: one row per image row, every channel of every pixel
// printed right-aligned in three columns, elements separated by ", ", rows
// by ";\n ".
func WriteMatrix(w io.Writer, name string, img *image.RGBA) error {
	bw := bufio.NewWriter(w)
	b := img.Bounds()

	fmt.Fprintf(bw, "%s = \n[", name)
	for y := 0; y < b.Dy(); y++ {
		if y > 0 {
			bw.WriteString(";\n ")
		}
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for i := 0; i < b.Dx()*4; i++ {
			if i > 0 {
				bw.WriteString(", ")
			}
			fmt.Fprintf(bw, "%3d", row[i])
		}
	}
	bw.WriteString("]\n\n")
	return bw.Flush()
}

// WriteDepthGrid writes one line per row of depth samples separated by single
// spaces.
func WriteDepthGrid(w io.Writer, depth *stereo.FloatMap) error {
	bw := bufio.NewWriter(w)
	for y := 0; y < depth.Height; y++ {
		for x, v := range depth.Row(y) {
			if x > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(FormatDepth(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteDepthList writes one "x y depth" line per sample in row-major order.
func WriteDepthList(w io.Writer, depth *stereo.FloatMap) error {
	bw := bufio.NewWriter(w)
	for y := 0; y < depth.Height; y++ {
		ys := strconv.Itoa(y)
		for x, v := range depth.Row(y) {
			bw.WriteString(strconv.Itoa(x))
			bw.WriteByte(' ')
			bw.WriteString(ys)
			bw.WriteByte(' ')
			bw.WriteString(FormatDepth(v))
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WriteColorPoints writes one "x y depth r g b a" line per sample. Depth is
// printed when it is greater than -1, otherwise (including NaN) as 0. The
// colour comes from the left image, each channel scaled to [0,1] and printed
// with three significant digits.
func WriteColorPoints(w io.Writer, depth *stereo.FloatMap, left *image.RGBA) error {
	lb := left.Bounds()
	if lb.Dx() < depth.Width || lb.Dy() < depth.Height {
		return fmt.Errorf("left image %v smaller than depth %dx%d", lb.Size(), depth.Width, depth.Height)
	}

	bw := bufio.NewWriter(w)
	for y := 0; y < depth.Height; y++ {
		ys := strconv.Itoa(y)
		for x, v := range depth.Row(y) {
			d := "0"
			if v > -1 {
				d = FormatDepth(v)
			}
			p := left.RGBAAt(lb.Min.X+x, lb.Min.Y+y)
			fmt.Fprintf(bw, "%d %s %s %s %s %s %s\n", x, ys, d,
				channel(p.R), channel(p.G), channel(p.B), channel(p.A))
		}
	}
	return bw.Flush()
}

func channel(c uint8) string {
	return FormatFloat(float64(float32(c)/255), 3)
}

// ReadDepthGrid parses the format WriteDepthGrid produces. Every row must
// have the same number of samples. nan and -nan read back as NaN.
func ReadDepthGrid(r io.Reader) (*stereo.FloatMap, error) {
	var rows [][]float32
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float32, len(fields))
		for i, f := range fields {
			if strings.HasSuffix(f, "nan") {
				row[i] = float32(math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			row[i] = float32(v)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("line %d: %d samples, want %d", line, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty depth grid")
	}

	m := stereo.NewFloatMap(len(rows[0]), len(rows))
	for y, row := range rows {
		copy(m.Row(y), row)
	}
	return m, nil
}
