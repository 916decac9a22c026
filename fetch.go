package ascii2nc

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultMaxBytes caps a remote or decompressed table. A 512x256 table with three columns is
// around 8 MB; global 0.1° grids stay well under this.
const DefaultMaxBytes = 256 << 20 // 256 MB

var gzipMagic = []byte{0x1f, 0x8b}

// Fetcher opens table sources: local paths, "-" for stdin, and http(s) URLs.
// Gzip-compressed sources are decompressed transparently.
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64     // cap on remote bodies and gunzipped data; <= 0 means DefaultMaxBytes
	Stdin      io.Reader // used for "-"; nil means os.Stdin
}

// NewFetcher returns a fetcher with sensible defaults.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		MaxBytes:   DefaultMaxBytes,
	}
}

// Open returns a reader over the (decompressed) contents of source.
// Failures to reach the source are ErrIO. A remote body, or decompressed
// gzip output, larger than MaxBytes surfaces as ErrMalformedInput while
// reading.
func (f *Fetcher) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case source == "-":
		in := f.Stdin
		if in == nil {
			in = os.Stdin
		}
		rc = io.NopCloser(in)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		rc, err = f.fetch(ctx, source)
	default:
		rc, err = os.Open(source)
	}
	if err != nil {
		return nil, ioError(source, err)
	}

	r, err := maybeGunzip(source, rc, f.limit())
	if err != nil {
		rc.Close()
		return nil, err
	}
	return r, nil
}

// fetch issues a GET and returns the body limited to MaxBytes.
func (f *Fetcher) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	return newLimitedBody(url, resp.Body, resp.Body, f.limit()), nil
}

func (f *Fetcher) limit() int64 {
	if f.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return f.MaxBytes
}

// limitedBody reads at most limit bytes and fails instead of silently
// truncating when the server sends more.
type limitedBody struct {
	io.Reader
	body   io.Closer
	limit  int64
	n      int64
	source string
}

func newLimitedBody(source string, r io.Reader, c io.Closer, limit int64) *limitedBody {
	return &limitedBody{
		Reader: io.LimitReader(r, limit+1),
		body:   c,
		limit:  limit,
		source: source,
	}
}

func (l *limitedBody) Read(p []byte) (int, error) {
	n, err := l.Reader.Read(p)
	l.n += int64(n)
	if l.n > l.limit {
		return 0, malformedf(l.source, "content exceeds %d bytes", l.limit)
	}
	return n, err
}

func (l *limitedBody) Close() error { return l.body.Close() }

// maybeGunzip sniffs the gzip magic number and wraps rc in a gzip reader when
// it is present. Decompressed output is capped at limit bytes.
func maybeGunzip(source string, rc io.ReadCloser, limit int64) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		var e *Error
		if errors.As(err, &e) {
			return nil, e
		}
		return nil, ioError(source, err)
	}
	if !bytes.Equal(head, gzipMagic) {
		return readCloser{Reader: br, Closer: rc}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, malformedf(source, "gzip: %v", err)
	}
	return newLimitedBody(source, zr, closers{zr, rc}, limit), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
