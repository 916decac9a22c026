package ascii2nc

import (
	"math"

	"github.com/ctessum/sparse"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusM = 6371229.0 // spherical earth used by CDO and most GCMs

// CellAreas returns the area in square meters of every cell described by the
// bounds from ComputeBounds, as a (nLat, nLon) field.
// Each cell is treated as a lat/lon rectangle from its west (vertex 0) to
// east (vertex 2) edge and between its lowest and highest latitude corner,
// so wrapped longitudes and clamped polar caps are measured as drawn.
func CellAreas(lonBnds, latBnds *sparse.DenseArray) (*sparse.DenseArray, error) {
	if lonBnds == nil || len(lonBnds.Shape) != 3 || lonBnds.Shape[2] != NumVertices {
		return nil, invalidGridf("longitude bounds have shape %v, expected [n_lat n_lon %d]", shapeOf(lonBnds), NumVertices)
	}
	nLat, nLon := lonBnds.Shape[0], lonBnds.Shape[1]
	if !hasShape(lonBnds, nLat, nLon, NumVertices) || !hasShape(latBnds, nLat, nLon, NumVertices) {
		return nil, invalidGridf("bounds have shapes %v and %v", shapeOf(lonBnds), shapeOf(latBnds))
	}

	area := sparse.ZerosDense(nLat, nLon)
	for c := range area.Elements {
		lon := lonBnds.Elements[c*NumVertices : (c+1)*NumVertices]
		lat := latBnds.Elements[c*NumVertices : (c+1)*NumVertices]
		area.Elements[c] = cellRect(lon, lat).Area() * earthRadiusM * earthRadiusM
	}
	return area, nil
}

// cellRect builds the lat/lon rectangle spanned by one cell's corners.
// Vertices 0 and 2 are on opposite meridians; the shorter of the two arcs
// between them is the cell's extent, whichever way the axis runs.
func cellRect(lon, lat []float64) s2.Rect {
	lo, hi := lat[0], lat[0]
	for _, y := range lat[1:] {
		lo = min(lo, y)
		hi = max(hi, y)
	}
	a := s2.LatLngFromDegrees(0, lon[0]).Normalized().Lng.Radians()
	b := s2.LatLngFromDegrees(0, lon[2]).Normalized().Lng.Radians()
	lng := s1.IntervalFromEndpoints(a, b)
	if rev := s1.IntervalFromEndpoints(b, a); rev.Length() < lng.Length() {
		lng = rev
	}
	return s2.Rect{Lat: r1.Interval{Lo: toRad(lo), Hi: toRad(hi)}, Lng: lng}
}

func toRad(d float64) float64 { return d * math.Pi / 180 }
