package ascii2nc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/sparse"
)

// DefaultMaxCells caps n_lon*n_lat so that absurd dimensions fail before any
// allocation.
const DefaultMaxCells = 100_000_000

// initialRows caps the up-front allocation; slices grow with the input.
const initialRows = 1 << 16

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// LoadOption configures LoadGrid.
type LoadOption func(*loadOptions)

type loadOptions struct {
	synthetic   bool
	stripeWidth int
	maxCells    int64
}

func defaultLoadOptions() *loadOptions {
	return &loadOptions{maxCells: DefaultMaxCells}
}

// WithSyntheticValues makes LoadGrid accept two-column tables, filling the
// scalar field with Stripes of the given width (DefaultStripeWidth if <= 0).
// Without it a missing value column is an error.
func WithSyntheticValues(width int) LoadOption {
	return func(o *loadOptions) {
		o.synthetic = true
		o.stripeWidth = width
	}
}

// WithMaxCells overrides DefaultMaxCells.
func WithMaxCells(n int64) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.maxCells = n
		}
	}
}

// LoadGrid reads a table of "lon lat [value]" rows, longitude varying
// fastest, and reshapes it into a (nLat, nLon) grid.
// Everything from a '#' to the end of its line is a comment; blank lines are
// ignored. Every row must have
// the same number of columns, either 2 or 3.
func LoadGrid(r io.Reader, nLon, nLat int, opts ...LoadOption) (*Grid, error) {
	o := defaultLoadOptions()
	for _, opt := range opts {
		opt(o)
	}

	if nLon <= 0 || nLat <= 0 {
		return nil, invalidGridf("grid dimensions must be positive, got n_lon=%d n_lat=%d", nLon, nLat)
	}
	// Divide instead of multiplying: n_lon*n_lat can wrap even in int64.
	if int64(nLat) > o.maxCells/int64(nLon) {
		return nil, invalidGridf("grid of %dx%d cells exceeds the limit of %d", nLon, nLat, o.maxCells)
	}
	expected := nLon * nLat

	capRows := min(expected, initialRows)
	lon := make([]float64, 0, capRows)
	lat := make([]float64, 0, capRows)
	var vals []float64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	rows, cols, line := 0, 0, 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		switch {
		case len(fields) < 2 || len(fields) > 3:
			return nil, malformedf("", "line %d: expected 2 or 3 columns, got %d", line, len(fields))
		case cols == 0:
			cols = len(fields)
			if cols == 3 {
				vals = make([]float64, 0, capRows)
			}
		case len(fields) != cols:
			return nil, malformedf("", "line %d: expected %d columns like the first row, got %d", line, cols, len(fields))
		}
		if rows == expected {
			return nil, malformedf("", "more than %d rows (n_lon=%d * n_lat=%d)", expected, nLon, nLat)
		}

		var row [3]float64
		for c, f := range fields {
			v, err := parseFloat(f)
			if err != nil {
				return nil, malformedf("", "line %d, column %d: %v", line, c+1, err)
			}
			row[c] = v
		}
		lon = append(lon, row[0])
		lat = append(lat, row[1])
		if cols == 3 {
			vals = append(vals, row[2])
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		var e *Error
		switch {
		case errors.Is(err, bufio.ErrTooLong):
			return nil, malformedf("", "line %d: longer than %d bytes", line+1, maxLineBytes)
		case errors.As(err, &e):
			return nil, e
		}
		return nil, ioError("", fmt.Errorf("reading table: %w", err))
	}
	if rows != expected {
		return nil, malformedf("", "read %d rows, expected %d (%dx%d)", rows, expected, nLon, nLat)
	}

	g := &Grid{
		NLon:      nLon,
		NLat:      nLat,
		Longitude: denseFrom(lon, nLat, nLon),
		Latitude:  denseFrom(lat, nLat, nLon),
	}
	if cols == 3 {
		g.Values = denseFrom(vals, nLat, nLon)
		return g, nil
	}
	if !o.synthetic {
		return nil, malformedf("", "table has no value column (2 columns per row) and synthetic values were not requested")
	}
	g.Values = Stripes(nLon, nLat, o.stripeWidth)
	g.Synthetic = true
	return g, nil
}

// LoadFile opens source with f (a path, "-", or an http(s) URL) and loads it
// with LoadGrid. Errors carry the source as their path.
func LoadFile(ctx context.Context, f *Fetcher, source string, nLon, nLat int, opts ...LoadOption) (*Grid, error) {
	if f == nil {
		f = NewFetcher()
	}
	rc, err := f.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	g, err := LoadGrid(rc, nLon, nLat, opts...)
	if err != nil {
		return nil, withPath(err, source)
	}
	return g, nil
}

// parseFloat accepts finite decimal numbers only; NaN and Inf are rejected
// because they would propagate into the cell bounds.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

func denseFrom(elems []float64, dims ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(dims...)
	copy(a.Elements, elems)
	return a
}
