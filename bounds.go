// Package ascii2nc converts regular lat/lon grids stored as whitespace
// delimited text (lon lat [value] per row) into NetCDF files carrying CF cell
// bounds, so that tools such as CDO can do area-weighted remapping on them.
package ascii2nc

import (
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// NumVertices is the number of corners per cell (the "nv" dimension).
const NumVertices = 4

// Corner offsets in units of half a grid step, by vertex index.
// Vertex k of the longitude and latitude bounds is one point of the cell
// polygon: SW, NW, NE, SE for increasing axes.
var (
	lonCornerSign = [NumVertices]float64{-1, -1, +1, +1}
	latCornerSign = [NumVertices]float64{-1, +1, +1, -1}
)

// Bounds holds the cell corners of a grid together with the parameters they
// were derived from.
type Bounds struct {
	Lon, Lat           *sparse.DenseArray // shape (nLat, nLon, NumVertices)
	DeltaLon, DeltaLat float64            // spacing taken from the first two axis samples
	LatMin, LatMax     float64            // extrema of the latitude axis

	Wrapped int // longitude corners moved from <0 into [0, 360)
	Clamped int // latitude corners forced to ±90
}

// ComputeBounds returns the longitude and latitude corners of every cell of a
// regular grid given its 2D center coordinates.
// Both outputs have shape (nLat, nLon, NumVertices).
func ComputeBounds(longitude, latitude *sparse.DenseArray, nLon, nLat int) (lonBnds, latBnds *sparse.DenseArray, err error) {
	b, err := NewBounds(longitude, latitude, nLon, nLat)
	if err != nil {
		return nil, nil, err
	}
	return b.Lon, b.Lat, nil
}

// NewBounds is ComputeBounds, also reporting spacing, extrema and how many
// corners were wrapped or clamped.
//
// Spacing is a single value per axis (axis[1]-axis[0]); per-cell spacing is
// never computed, even for slightly irregular input.
// Negative longitude corners get +360; corners of 360 or more are left as is.
// Latitude corners beyond the extrema of the latitude axis (not of the
// corners) become -90 or +90, which turns the outer half of the first and last
// rows into polar caps.
func NewBounds(longitude, latitude *sparse.DenseArray, nLon, nLat int) (*Bounds, error) {
	if nLon < 2 || nLat < 2 {
		return nil, invalidGridf("need at least 2 samples per axis, got %dx%d (lon x lat)", nLon, nLat)
	}
	if !hasShape(longitude, nLat, nLon) {
		return nil, invalidGridf("longitude field has shape %v, expected [%d %d]", shapeOf(longitude), nLat, nLon)
	}
	if !hasShape(latitude, nLat, nLon) {
		return nil, invalidGridf("latitude field has shape %v, expected [%d %d]", shapeOf(latitude), nLat, nLon)
	}
	if i := firstNonFinite(longitude.Elements); i >= 0 {
		return nil, invalidGridf("longitude at cell (%d,%d) is %v", i/nLon, i%nLon, longitude.Elements[i])
	}
	if i := firstNonFinite(latitude.Elements); i >= 0 {
		return nil, invalidGridf("latitude at cell (%d,%d) is %v", i/nLon, i%nLon, latitude.Elements[i])
	}

	lon := lonAxis(longitude)
	lat := latAxis(latitude)
	b := &Bounds{
		Lon:      sparse.ZerosDense(nLat, nLon, NumVertices),
		Lat:      sparse.ZerosDense(nLat, nLon, NumVertices),
		DeltaLon: lon[1] - lon[0],
		DeltaLat: lat[1] - lat[0],
		LatMin:   floats.Min(lat),
		LatMax:   floats.Max(lat),
	}

	for c, lonC := range longitude.Elements {
		latC := latitude.Elements[c]
		for k := 0; k < NumVertices; k++ {
			x := lonC + lonCornerSign[k]*0.5*b.DeltaLon
			if w := WrapLon(x); w != x {
				x = w
				b.Wrapped++
			}

			y := latC + latCornerSign[k]*0.5*b.DeltaLat
			if cl := clampLat(y, b.LatMin, b.LatMax); cl != y {
				y = cl
				b.Clamped++
			}

			b.Lon.Elements[c*NumVertices+k] = x
			b.Lat.Elements[c*NumVertices+k] = y
		}
	}
	return b, nil
}

// WrapLon moves a negative longitude into [0, 360) by adding one turn.
// Non-negative values, including those of 360 or more, are returned unchanged.
func WrapLon(lon float64) float64 {
	if lon < 0 {
		return lon + 360.0
	}
	return lon
}

// clampLat forces latitudes outside [min, max] to the nearest pole.
// The two checks run in sequence, so a value already set to -90 is compared
// against max too.
func clampLat(lat, min, max float64) float64 {
	if lat < min {
		lat = -90.0
	}
	if lat > max {
		lat = 90.0
	}
	return lat
}

func firstNonFinite(xs []float64) int {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return i
		}
	}
	return -1
}

func shapeOf(a *sparse.DenseArray) []int {
	if a == nil {
		return nil
	}
	return a.Shape
}
