package ascii2nc

import "github.com/ctessum/sparse"

// Grid is a regular lat/lon grid loaded from a table.
// All 2D fields have shape (NLat, NLon) and are stored row-major, so the
// element for (i, j) is at index i*NLon + j.
type Grid struct {
	NLon, NLat int
	Longitude  *sparse.DenseArray // cell-center longitudes, degrees east
	Latitude   *sparse.DenseArray // cell-center latitudes, degrees north
	Values     *sparse.DenseArray // scalar field

	// Synthetic is set when Values is the stripe test field rather than data
	// read from the input.
	Synthetic bool
}

// LonAxis returns the 1D longitude axis (the first row of Longitude).
func (g *Grid) LonAxis() []float64 {
	return lonAxis(g.Longitude)
}

// LatAxis returns the 1D latitude axis (the first column of Latitude).
func (g *Grid) LatAxis() []float64 {
	return latAxis(g.Latitude)
}

func lonAxis(longitude *sparse.DenseArray) []float64 {
	nLon := longitude.Shape[1]
	axis := make([]float64, nLon)
	copy(axis, longitude.Elements[:nLon])
	return axis
}

func latAxis(latitude *sparse.DenseArray) []float64 {
	nLat, nLon := latitude.Shape[0], latitude.Shape[1]
	axis := make([]float64, nLat)
	for i := range axis {
		axis[i] = latitude.Elements[i*nLon]
	}
	return axis
}

// hasShape reports whether a has exactly the given dimensions.
func hasShape(a *sparse.DenseArray, dims ...int) bool {
	if a == nil || len(a.Shape) != len(dims) {
		return false
	}
	n := 1
	for i, d := range dims {
		if a.Shape[i] != d {
			return false
		}
		n *= d
	}
	return len(a.Elements) == n
}
