// Package sink builds the output Sink Array (spec component C4): one
// io.WriteCloser per segment id, each wrapped in a buffered, optionally
// compressed layer, plus the path-templating and FIFO pre-creation rules
// that decide where those bytes land. Grounded on
// original_source/src/output.rs's build_writers/writer_from_path, with the
// compressor-selection shape of encoding/bgzf/writer.go generalized to
// dispatch across multiple codecs.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/grailbio/xsra/pkg/filter"
)

// minBufferSize is the floor for every sink's buffered writer, mirroring
// output.rs's BufWriter::with_capacity(BUFFER_SIZE, ...).
const minBufferSize = 1 << 20

// Kind identifies where a sink's bytes ultimately land.
type Kind int

const (
	RegularFile Kind = iota
	NamedPipe
	Stdout
)

// Compression identifies the codec layered over a sink's buffered writer.
type Compression int

const (
	None Compression = iota
	Gzip
	Bgzf
	Zstd
)

// Ext returns the compression's file extension, or "" for None.
func (c Compression) Ext() string {
	switch c {
	case Gzip:
		return "gz"
	case Bgzf:
		return "bgz"
	case Zstd:
		return "zst"
	default:
		return ""
	}
}

// WrapWriter layers compression c over w, returning an io.WriteCloser whose
// Close both finalizes the codec and (for file-backed underlying writers)
// leaves flushing the buffer to the caller — callers compose this with a
// bufio.Writer first (see buildOne). parallelism is passed through to
// the codecs that accept concurrent encoding.
func WrapWriter(w io.Writer, c Compression, parallelism int) (io.WriteCloser, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	switch c {
	case None:
		return nopCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Bgzf:
		return bgzf.NewWriter(w, parallelism)
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderConcurrency(parallelism))
	default:
		return nil, fmt.Errorf("sink: unknown compression %d", c)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OutputSpec configures the Sink Array, mirroring spec.md §3's OutputSpec.
type OutputSpec struct {
	Format      string // file extension token, e.g. "fastq", "fasta", "bsq", "vbq"
	Compression Compression
	Split       bool
	Outdir      string // empty means no directory prefix
	Prefix      string
	SinkKind    Kind
	KeepEmpty   bool
	Threads     int // total worker thread count, used to size compressor parallelism
}

// Sink is one output stream plus the bookkeeping needed to clean it up
// after the run.
type Sink struct {
	SID     int
	Path    string // "" for Stdout or a discarded sid
	Kind    Kind
	w       io.WriteCloser
	flusher *bufio.Writer
	written uint64
}

// Write implements io.Writer and tracks whether this sink ever received
// data, per spec.md §4.6 step 7's keep_empty / discard-sink cleanup.
func (s *Sink) Write(p []byte) (int, error) {
	if len(p) > 0 {
		s.written += uint64(len(p))
	}
	return s.w.Write(p)
}

// Close flushes and closes the sink's compressor and buffer layers.
func (s *Sink) Close() error {
	if err := s.w.Close(); err != nil {
		return err
	}
	if s.flusher != nil {
		return s.flusher.Flush()
	}
	return nil
}

// NewTestSink wraps an arbitrary io.WriteCloser as a Sink, for use by other
// packages' tests (pkg/writer, pkg/coordinator) that need a Sink Array
// without touching the filesystem.
func NewTestSink(sid int, w io.WriteCloser) *Sink {
	return &Sink{SID: sid, w: w}
}

// Array is the ordered set of per-sid sinks built for one run.
type Array struct {
	Sinks []*Sink
}

// discardWriter implements io.WriteCloser by dropping every write, used for
// sids excluded by a non-empty include set (spec.md §4.4: "sinks for sids
// not in the include-set are replaced by a discard sink").
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
func (discardWriter) Close() error                { return nil }

// BuildArray constructs the Sink Array for spec, with one entry per sid in
// [0, maxSIDs), following spec.md §4.4's construction policy.
func BuildArray(spec OutputSpec, f filter.Spec, maxSIDs int) (*Array, error) {
	if !spec.Split {
		sk, err := buildOne(spec, -1)
		if err != nil {
			return nil, err
		}
		return &Array{Sinks: []*Sink{sk}}, nil
	}

	arr := &Array{Sinks: make([]*Sink, maxSIDs)}
	for sid := 0; sid < maxSIDs; sid++ {
		if len(f.Include) > 0 && !f.Include[sid] {
			arr.Sinks[sid] = &Sink{SID: sid, w: discardWriter{}}
			continue
		}
		sk, err := buildOne(spec, sid)
		if err != nil {
			return nil, err
		}
		arr.Sinks[sid] = sk
	}
	return arr, nil
}

func buildOne(spec OutputSpec, sid int) (*Sink, error) {
	parallelism := spec.Threads / 4
	if parallelism < 1 {
		parallelism = 1
	}

	if spec.SinkKind == Stdout {
		bw := bufio.NewWriterSize(os.Stdout, minBufferSize)
		cw, err := WrapWriter(bw, spec.Compression, parallelism)
		if err != nil {
			return nil, err
		}
		return &Sink{SID: sid, Kind: Stdout, w: cw, flusher: bw}, nil
	}

	path := BuildPath(spec, sid)
	if spec.SinkKind == NamedPipe {
		if err := ensureFIFO(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: creating %s: %w", path, err)
	}
	bw := bufio.NewWriterSize(f, minBufferSize)
	cw, err := WrapWriter(bw, spec.Compression, parallelism)
	if err != nil {
		return nil, err
	}
	return &Sink{SID: sid, Path: path, Kind: spec.SinkKind, w: cw, flusher: bw}, nil
}

// BuildPath renders the path template from spec.md §4.4:
// <outdir>{sep}<prefix><sid>.<format_ext>[.<compression_ext>], sep='/' for
// regular files, '.' for named pipes. sid < 0 means "unsplit" and omits the
// sid component entirely.
func BuildPath(spec OutputSpec, sid int) string {
	sep := "/"
	if spec.SinkKind == NamedPipe {
		sep = "."
	}
	name := spec.Prefix
	if sid >= 0 {
		name = fmt.Sprintf("%s%d", spec.Prefix, sid)
	}
	name += "." + spec.Format
	if ext := spec.Compression.Ext(); ext != "" {
		name += "." + ext
	}
	if spec.Outdir == "" {
		return name
	}
	return spec.Outdir + sep + name
}

// CloseAndCleanup closes every sink and, per spec.md §4.6 step 7, removes
// sinks that never received data (named-pipe sinks are always removed)
// unless keepEmpty is set for regular files.
func (a *Array) CloseAndCleanup(keepEmpty bool) error {
	var firstErr error
	for _, s := range a.Sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if s.Path == "" {
			continue
		}
		remove := s.Kind == NamedPipe || (s.written == 0 && !keepEmpty)
		if remove {
			if err := os.Remove(s.Path); err != nil && firstErr == nil && !os.IsNotExist(err) {
				firstErr = err
			}
		}
	}
	return firstErr
}
