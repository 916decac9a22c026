package ascii2nc

import "github.com/ctessum/sparse"

// DefaultStripeWidth is the stripe width, in cells, of the synthetic field.
const DefaultStripeWidth = 32

// Stripes returns a (nLat, nLon) test field for tables that carry coordinates
// only. Rows i with i mod 2w < w contribute 1, and so do columns j with
// j mod 2w < w, giving a checkerboard of 0, 1 and 2 that makes remapping
// artifacts easy to spot. It is not derived from any data.
func Stripes(nLon, nLat, width int) *sparse.DenseArray {
	if width <= 0 {
		width = DefaultStripeWidth
	}
	data := sparse.ZerosDense(nLat, nLon)
	for i := 0; i < nLat; i++ {
		for j := 0; j < nLon; j++ {
			var v float64
			if i%(2*width) < width {
				v++
			}
			if j%(2*width) < width {
				v++
			}
			data.Elements[i*nLon+j] = v
		}
	}
	return data
}
