package ascii2nc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Dimension and variable names of the output file. CDO and the CF
// conventions find the cell bounds through these names and the "bounds"
// attributes, so they must not change.
const (
	DimLat = "lat"
	DimLon = "lon"
	DimNV  = "nv"

	VarLon       = "lon"
	VarLat       = "lat"
	VarLongitude = "longitude"
	VarLatitude  = "latitude"
	VarLonBounds = "longitude_bnds"
	VarLatBounds = "latitude_bnds"
	VarCellArea  = "cell_area"
)

// Variable describes the scalar field written next to the grid.
type Variable struct {
	Name         string `yaml:"name"`
	Units        string `yaml:"units"`
	StandardName string `yaml:"standard_name"`
}

// DefaultVariable is bedrock topography in meters.
func DefaultVariable() Variable {
	return Variable{Name: "topg", Units: "meters", StandardName: "bedrock_altitude"}
}

// WriteOption configures WriteGrid and Encode.
type WriteOption func(*writeOptions)

type writeOptions struct {
	variable Variable
	cellArea *sparse.DenseArray
	global   []attr
}

type attr struct {
	name, value string
}

func newWriteOptions(opts []WriteOption) *writeOptions {
	o := &writeOptions{variable: DefaultVariable()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithVariable names the scalar field and sets its units and standard name.
// Empty Units or StandardName omit the attribute.
func WithVariable(v Variable) WriteOption {
	return func(o *writeOptions) {
		if v.Name != "" {
			o.variable = v
		}
	}
}

// WithCellArea adds a cell_area variable (see CellAreas) and links it from
// the scalar field through cell_measures.
func WithCellArea(area *sparse.DenseArray) WriteOption {
	return func(o *writeOptions) {
		o.cellArea = area
	}
}

// WithGlobalAttribute adds a file-level text attribute such as "history".
func WithGlobalAttribute(name, value string) WriteOption {
	return func(o *writeOptions) {
		o.global = append(o.global, attr{name: name, value: value})
	}
}

// WriteGrid writes g and its bounds to a NetCDF classic file at path,
// replacing any existing file. The data goes to a temporary file in the same
// directory which is renamed over path once complete, so path never holds a
// partially written file. All failures are ErrIO and name path.
func WriteGrid(path string, g *Grid, lonBnds, latBnds *sparse.DenseArray, opts ...WriteOption) (err error) {
	if err := newWriteOptions(opts).check(g, lonBnds, latBnds); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioError(path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := Encode(tmp, g, lonBnds, latBnds, opts...); err != nil {
		return ioError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		return ioError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return ioError(path, err)
	}
	if err := os.Chmod(tmp.Name(), outputMode(path)); err != nil {
		return ioError(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return ioError(path, err)
	}
	return nil
}

// outputMode keeps the permissions of a file being replaced. New files get
// 0644, what os.Create yields under the usual 022 umask; CreateTemp's 0600
// would hide the output from other users.
func outputMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		return fi.Mode().Perm()
	}
	return 0o644
}

// Encode writes the NetCDF header and every variable into rw.
func Encode(rw cdf.ReaderWriterAt, g *Grid, lonBnds, latBnds *sparse.DenseArray, opts ...WriteOption) error {
	o := newWriteOptions(opts)
	if err := o.check(g, lonBnds, latBnds); err != nil {
		return err
	}

	h := cdf.NewHeader(
		[]string{DimLat, DimLon, DimNV},
		[]int{g.NLat, g.NLon, NumVertices})
	for _, a := range o.global {
		h.AddAttribute("", a.name, a.value)
	}

	grid2D := []string{DimLat, DimLon}
	grid3D := []string{DimLat, DimLon, DimNV}

	h.AddVariable(VarLon, []string{DimLon}, []float64{0})
	h.AddAttribute(VarLon, "units", "degree_east")
	h.AddVariable(VarLongitude, grid2D, []float64{0})
	h.AddAttribute(VarLongitude, "units", "degree_east")
	h.AddAttribute(VarLongitude, "bounds", VarLonBounds)
	h.AddVariable(VarLonBounds, grid3D, []float64{0})

	h.AddVariable(VarLat, []string{DimLat}, []float64{0})
	h.AddAttribute(VarLat, "units", "degree_north")
	h.AddVariable(VarLatitude, grid2D, []float64{0})
	h.AddAttribute(VarLatitude, "units", "degree_north")
	h.AddAttribute(VarLatitude, "bounds", VarLatBounds)
	h.AddVariable(VarLatBounds, grid3D, []float64{0})

	v := o.variable
	h.AddVariable(v.Name, grid2D, []float64{0})
	if v.Units != "" {
		h.AddAttribute(v.Name, "units", v.Units)
	}
	if v.StandardName != "" {
		h.AddAttribute(v.Name, "standard_name", v.StandardName)
	}
	h.AddAttribute(v.Name, "coordinates", VarLatitude+" "+VarLongitude)

	if o.cellArea != nil {
		h.AddAttribute(v.Name, "cell_measures", "area: "+VarCellArea)
		h.AddVariable(VarCellArea, grid2D, []float64{0})
		h.AddAttribute(VarCellArea, "units", "m2")
		h.AddAttribute(VarCellArea, "standard_name", "cell_area")
	}

	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("netcdf header: %v", errs[0])
	}

	f, err := cdf.Create(rw, h)
	if err != nil {
		return fmt.Errorf("netcdf create: %w", err)
	}

	data := []varData{
		{VarLon, g.LonAxis()},
		{VarLongitude, g.Longitude.Elements},
		{VarLonBounds, lonBnds.Elements},
		{VarLat, g.LatAxis()},
		{VarLatitude, g.Latitude.Elements},
		{VarLatBounds, latBnds.Elements},
		{v.Name, g.Values.Elements},
	}
	if o.cellArea != nil {
		data = append(data, varData{VarCellArea, o.cellArea.Elements})
	}
	for _, d := range data {
		if err := writeVar(f, d.name, d.vals); err != nil {
			return fmt.Errorf("writing variable %s: %w", d.name, err)
		}
	}
	return nil
}

type varData struct {
	name string
	vals []float64
}

func writeVar(f *cdf.File, name string, vals []float64) error {
	end := f.Header.Lengths(name)
	n := 1
	for _, l := range end {
		n *= l
	}
	if len(vals) != n {
		return fmt.Errorf("dims are %v but array length is %d", end, len(vals))
	}
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(vals)
	return err
}

type shapeCheck struct {
	name string
	a    *sparse.DenseArray
	dims []int
}

// check validates names and shapes before anything touches the destination.
func (o *writeOptions) check(g *Grid, lonBnds, latBnds *sparse.DenseArray) error {
	if g == nil {
		return invalidGridf("nil grid")
	}
	if g.NLon <= 0 || g.NLat <= 0 {
		return invalidGridf("grid dimensions must be positive, got n_lon=%d n_lat=%d", g.NLon, g.NLat)
	}
	switch o.variable.Name {
	case VarLon, VarLat, VarLongitude, VarLatitude, VarLonBounds, VarLatBounds, VarCellArea:
		return &Error{Kind: ErrConfig, Err: fmt.Errorf("variable name %q collides with a grid variable", o.variable.Name)}
	}

	checks := []shapeCheck{
		{VarLongitude, g.Longitude, []int{g.NLat, g.NLon}},
		{VarLatitude, g.Latitude, []int{g.NLat, g.NLon}},
		{o.variable.Name, g.Values, []int{g.NLat, g.NLon}},
		{VarLonBounds, lonBnds, []int{g.NLat, g.NLon, NumVertices}},
		{VarLatBounds, latBnds, []int{g.NLat, g.NLon, NumVertices}},
	}
	if o.cellArea != nil {
		checks = append(checks, shapeCheck{VarCellArea, o.cellArea, []int{g.NLat, g.NLon}})
	}
	for _, c := range checks {
		if !hasShape(c.a, c.dims...) {
			return invalidGridf("%s has shape %v, expected %v", c.name, shapeOf(c.a), c.dims)
		}
	}
	return nil
}
