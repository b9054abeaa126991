package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/xsra/pkg/filter"
)

func TestBuildPath(t *testing.T) {
	cases := []struct {
		name string
		spec OutputSpec
		sid  int
		want string
	}{
		{
			"regular file, no compression",
			OutputSpec{Format: "fastq", Outdir: "out", Prefix: "r", SinkKind: RegularFile},
			2, "out/r2.fastq",
		},
		{
			"regular file, gzip",
			OutputSpec{Format: "fastq", Compression: Gzip, Outdir: "out", Prefix: "r", SinkKind: RegularFile},
			0, "out/r0.fastq.gz",
		},
		{
			"named pipe uses dot separator",
			OutputSpec{Format: "fastq", Outdir: "out", Prefix: "r", SinkKind: NamedPipe},
			1, "out.r1.fastq",
		},
		{
			"unsplit omits sid",
			OutputSpec{Format: "fastq", Outdir: "out", Prefix: "r", SinkKind: RegularFile},
			-1, "out/r.fastq",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := BuildPath(c.spec, c.sid); got != c.want {
				t.Errorf("BuildPath() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestCompressionExt(t *testing.T) {
	cases := map[Compression]string{None: "", Gzip: "gz", Bgzf: "bgz", Zstd: "zst"}
	for c, want := range cases {
		if got := c.Ext(); got != want {
			t.Errorf("Compression(%d).Ext() = %q, want %q", c, got, want)
		}
	}
}

func TestWrapWriterNone(t *testing.T) {
	var buf bytes.Buffer
	w, err := WrapWriter(&buf, None, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello" {
		t.Errorf("buf = %q, want hello", buf.String())
	}
}

func TestDiscardWriterAcceptsAnyWrite(t *testing.T) {
	s := &Sink{SID: 1, w: discardWriter{}}
	n, err := s.Write([]byte("xyz"))
	if err != nil || n != 3 {
		t.Fatalf("discard write = (%d, %v), want (3, nil)", n, err)
	}
	if s.written != 3 {
		t.Errorf("written = %d, want 3", s.written)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}
}

func TestCloseAndCleanupAlwaysRemovesNamedPipes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r0.fastq")
	if err := os.WriteFile(path, []byte("some data"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &Sink{SID: 0, Path: path, Kind: NamedPipe, w: discardWriter{}}
	s.written = 9 // this FIFO received data, unlike the keepEmpty-gated case

	arr := &Array{Sinks: []*Sink{s}}
	if err := arr.CloseAndCleanup(true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("named pipe at %s should always be removed post-run, stat err = %v", path, err)
	}
}

func TestBuildArraySplitDiscardsExcludedSIDs(t *testing.T) {
	f := filter.Spec{Include: map[int]bool{1: true}}
	maxSIDs := 4
	spec := OutputSpec{Format: "fastq", Split: true, Outdir: t.TempDir(), Prefix: "r", SinkKind: RegularFile}
	arr, err := BuildArray(spec, f, maxSIDs)
	if err != nil {
		t.Fatal(err)
	}
	defer arr.CloseAndCleanup(false)
	if len(arr.Sinks) != maxSIDs {
		t.Fatalf("len(Sinks) = %d, want %d", len(arr.Sinks), maxSIDs)
	}
	for sid := range arr.Sinks {
		_, discarded := arr.Sinks[sid].w.(discardWriter)
		if sid == 1 {
			if discarded {
				t.Errorf("sid 1 is in the include set and should not be discarded")
			}
			continue
		}
		if !discarded {
			t.Errorf("sid %d should have a discard sink", sid)
		}
	}
}
