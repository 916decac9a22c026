package ascii2nc

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Converter runs load, bounds and write for one input/output pair.
type Converter struct {
	Config  *Config
	Fetcher *Fetcher
	Logger  *zap.Logger

	// History, if set, is written as the global "history" attribute.
	History string
}

// NewConverter returns a converter for cfg (DefaultConfig if nil) that logs
// nowhere.
func NewConverter(cfg *Config) *Converter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	f := NewFetcher()
	if d, err := cfg.FetchTimeout(); err == nil {
		f.HTTPClient = &http.Client{Timeout: d}
	}
	if cfg.Fetch.MaxBytes > 0 {
		f.MaxBytes = cfg.Fetch.MaxBytes
	}
	return &Converter{Config: cfg, Fetcher: f, Logger: zap.NewNop()}
}

// Result summarizes a finished conversion.
type Result struct {
	NLon, NLat int
	Bounds     *Bounds
	Synthetic  bool
}

// Convert reads input, computes the cell bounds and writes output.
// Nothing is written unless the input loads and the bounds compute.
func (c *Converter) Convert(ctx context.Context, input, output string) (*Result, error) {
	cfg := c.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var loadOpts []LoadOption
	if cfg.Synthetic.Enabled {
		loadOpts = append(loadOpts, WithSyntheticValues(cfg.Synthetic.StripeWidth))
	}

	start := time.Now()
	g, err := LoadFile(ctx, c.Fetcher, input, cfg.NLon, cfg.NLat, loadOpts...)
	if err != nil {
		return nil, err
	}
	log.Debug("load",
		zap.String("input", input),
		zap.Int("n_lon", g.NLon),
		zap.Int("n_lat", g.NLat),
		zap.Duration("elapsed", time.Since(start)))
	if g.Synthetic {
		log.Warn("input has no value column, writing synthetic stripe field",
			zap.String("input", input),
			zap.Int("stripe_width", cfg.Synthetic.StripeWidth))
	}

	start = time.Now()
	b, err := NewBounds(g.Longitude, g.Latitude, g.NLon, g.NLat)
	if err != nil {
		return nil, withPath(err, input)
	}
	log.Debug("bounds",
		zap.Float64("delta_lon", b.DeltaLon),
		zap.Float64("delta_lat", b.DeltaLat),
		zap.Float64("lat_min", b.LatMin),
		zap.Float64("lat_max", b.LatMax),
		zap.Int("wrapped", b.Wrapped),
		zap.Int("clamped", b.Clamped),
		zap.Duration("elapsed", time.Since(start)))

	writeOpts := []WriteOption{WithVariable(cfg.Variable)}
	if c.History != "" {
		writeOpts = append(writeOpts, WithGlobalAttribute("history", c.History))
	}
	if cfg.CellArea {
		area, err := CellAreas(b.Lon, b.Lat)
		if err != nil {
			return nil, withPath(err, input)
		}
		writeOpts = append(writeOpts, WithCellArea(area))
	}

	start = time.Now()
	if err := WriteGrid(output, g, b.Lon, b.Lat, writeOpts...); err != nil {
		return nil, withPath(err, output)
	}
	log.Debug("write",
		zap.String("output", output),
		zap.String("variable", cfg.Variable.Name),
		zap.Bool("cell_area", cfg.CellArea),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{NLon: g.NLon, NLat: g.NLat, Bounds: b, Synthetic: g.Synthetic}, nil
}
