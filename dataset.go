package ascii2nc

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// Dataset is a NetCDF file opened for reading.
type Dataset struct {
	path string
	file *os.File
	nc   *cdf.File
}

// ReadDataset opens a NetCDF classic file. Close it when done.
func ReadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError(path, err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, malformedf(path, "not a NetCDF classic file: %v", err)
	}
	return &Dataset{path: path, file: f, nc: nc}, nil
}

// Close releases the underlying file.
func (d *Dataset) Close() error {
	return d.file.Close()
}

// Dims returns the dimension names and lengths of the file, in definition
// order.
func (d *Dataset) Dims() ([]string, []int) {
	return d.nc.Header.Dimensions(""), d.nc.Header.Lengths("")
}

// Dim returns the length of the named dimension, or -1.
func (d *Dataset) Dim(name string) int {
	names, lengths := d.Dims()
	for i, n := range names {
		if n == name {
			return lengths[i]
		}
	}
	return -1
}

// Variables lists the variable names in definition order.
func (d *Dataset) Variables() []string {
	return d.nc.Header.Variables()
}

// VarDims returns the dimension names of variable v.
func (d *Dataset) VarDims(v string) []string {
	return d.nc.Header.Dimensions(v)
}

// Attributes lists the attribute names of variable v ("" for global ones).
func (d *Dataset) Attributes(v string) []string {
	return d.nc.Header.Attributes(v)
}

// Attribute returns the value of attribute a of variable v, formatted as
// text, and whether it exists.
func (d *Dataset) Attribute(v, a string) (string, bool) {
	val := d.nc.Header.GetAttribute(v, a)
	if val == nil {
		return "", false
	}
	if s, ok := val.(string); ok {
		return s, true
	}
	return fmt.Sprint(val), true
}

// Float64s reads all of variable v, which must be of type double.
func (d *Dataset) Float64s(v string) ([]float64, error) {
	if d.nc.Header.Lengths(v) == nil {
		return nil, malformedf(d.path, "variable %s not in file", v)
	}
	r := d.nc.Reader(v, nil, nil)
	buf := r.Zero(-1)
	vals, ok := buf.([]float64)
	if !ok {
		return nil, malformedf(d.path, "variable %s is %T, expected []float64", v, buf)
	}
	if _, err := r.Read(vals); err != nil {
		return nil, ioError(d.path, fmt.Errorf("reading variable %s: %w", v, err))
	}
	return vals, nil
}
