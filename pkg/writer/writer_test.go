package writer

import (
	"bytes"
	"testing"

	"github.com/grailbio/xsra/pkg/sink"
)

type fakeWriteCloser struct {
	buf    bytes.Buffer
	closed bool
}

func (f *fakeWriteCloser) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *fakeWriteCloser) Close() error                 { f.closed = true; return nil }

func newTestArray(n int) (*sink.Array, []*fakeWriteCloser) {
	fakes := make([]*fakeWriteCloser, n)
	arr := &sink.Array{Sinks: make([]*sink.Sink, n)}
	for i := range fakes {
		fakes[i] = &fakeWriteCloser{}
		arr.Sinks[i] = sink.NewTestSink(i, fakes[i])
	}
	return arr, fakes
}

func TestDirectWriterWrite(t *testing.T) {
	arr, fakes := newTestArray(2)
	w := NewDirectWriter(arr)
	if err := w.Write(1, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if fakes[1].buf.String() != "hello" {
		t.Errorf("sink 1 = %q, want hello", fakes[1].buf.String())
	}
	if fakes[0].buf.Len() != 0 {
		t.Error("sink 0 should be untouched")
	}
	if err := w.Write(5, []byte("x")); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestBufferedWriterWriteAndClose(t *testing.T) {
	arr, fakes := newTestArray(2)
	w := NewBufferedWriter(arr, 4)
	if err := w.Write(0, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(1, []byte("xyz")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if fakes[0].buf.String() != "abc" {
		t.Errorf("sink 0 = %q, want abc", fakes[0].buf.String())
	}
	if fakes[1].buf.String() != "xyz" {
		t.Errorf("sink 1 = %q, want xyz", fakes[1].buf.String())
	}
}

func TestChooseSelectsBufferedForNamedPipe(t *testing.T) {
	arr, _ := newTestArray(1)
	arr.Sinks[0].Kind = sink.NamedPipe
	if _, ok := Choose(arr, 4).(*BufferedWriter); !ok {
		t.Error("expected BufferedWriter when a sink is a named pipe")
	}

	arr2, _ := newTestArray(1)
	if _, ok := Choose(arr2, 4).(*DirectWriter); !ok {
		t.Error("expected DirectWriter when no sink is a named pipe")
	}
}
