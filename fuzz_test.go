package ascii2nc

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
)

// FuzzLoadGrid feeds arbitrary text to LoadGrid.
// The invariant: no panic, and every error carries exactly one known kind.
// Run with: go test -fuzz=FuzzLoadGrid -fuzztime=60s .
func FuzzLoadGrid(f *testing.F) {
	seeds := []string{
		"0 0 1\n1 0 2\n0 1 3\n1 1 4\n",
		"0 0\n1 0\n0 1\n1 1\n",
		"# header\n\n0 0 1\n",
		"nan inf -inf\n",
		"1e308 -1e308 1e-308\n",
		"",
		"\t \n",
	}
	for _, s := range seeds {
		f.Add(s, 2, 2)
	}

	f.Fuzz(func(t *testing.T, in string, nLon, nLat int) {
		g, err := LoadGrid(strings.NewReader(in), nLon, nLat, WithMaxCells(1<<16), WithSyntheticValues(0))
		if err != nil {
			if !errors.Is(err, ErrMalformedInput) && !errors.Is(err, ErrInvalidGrid) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		// Success implies the product stayed under the cap, so it cannot wrap.
		if int64(len(g.Longitude.Elements)) != int64(nLon)*int64(nLat) || len(g.Values.Elements) != len(g.Longitude.Elements) {
			t.Fatalf("fields do not match %dx%d", nLon, nLat)
		}
	})
}

// FuzzComputeBounds checks the wrap and clamp invariants on arbitrary regular
// grids.
// Run with: go test -fuzz=FuzzComputeBounds -fuzztime=60s .
func FuzzComputeBounds(f *testing.F) {
	f.Add(10.0, 2.0, -1.0, 2.0, 2, 2)
	f.Add(-180.0, 1.0, -89.5, 1.0, 8, 4)
	f.Add(359.5, -0.5, 60.0, -10.0, 3, 5)

	f.Fuzz(func(t *testing.T, lon0, dLon, lat0, dLat float64, nLon, nLat int) {
		if nLon < 2 || nLat < 2 || nLon > 64 || nLat > 64 {
			return
		}
		for _, v := range []float64{lon0, dLon, lat0, dLat} {
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e6 {
				return
			}
		}
		// One turn is added at most, so corners below -360 stay negative.
		if min(lon0, lon0+float64(nLon-1)*dLon)-math.Abs(dLon) < -360 {
			return
		}
		lon := sparse.ZerosDense(nLat, nLon)
		lat := sparse.ZerosDense(nLat, nLon)
		for i := 0; i < nLat; i++ {
			for j := 0; j < nLon; j++ {
				lon.Elements[i*nLon+j] = lon0 + float64(j)*dLon
				lat.Elements[i*nLon+j] = lat0 + float64(i)*dLat
			}
		}

		b, err := NewBounds(lon, lat, nLon, nLat)
		if err != nil {
			t.Fatalf("NewBounds: %v", err)
		}
		for _, x := range b.Lon.Elements {
			if x < 0 {
				t.Fatalf("negative longitude corner %v", x)
			}
		}
		for _, y := range b.Lat.Elements {
			inAxis := y >= b.LatMin && y <= b.LatMax
			if !inAxis && y != -90 && y != 90 {
				t.Fatalf("latitude corner %v outside [%v, %v] and not a pole", y, b.LatMin, b.LatMax)
			}
		}
	})
}
