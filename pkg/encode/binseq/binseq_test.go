package binseq

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := NewExtendedHeader(100, 50)
	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("ReadHeader() = %+v, want %+v", got, h)
	}
	if !got.Paired() {
		t.Error("expected Paired() to be true")
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("not a valid header!!")
	if _, err := ReadHeader(buf); err == nil {
		t.Error("expected error for bad magic")
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	seq := []byte("ACGTACGTAC")
	packed := pack2bit(seq, RandomDraw)
	got := Unpack2bit(packed, len(seq))
	if string(got) != string(seq) {
		t.Errorf("round trip = %q, want %q", got, seq)
	}
}

func TestWriteNucleotidesRejectsWrongLength(t *testing.T) {
	var sink bytes.Buffer
	w, err := NewWriter(&sink, NewHeader(4), RandomDraw, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteNucleotides(0, []byte("ACG")); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestIngestAndFlush(t *testing.T) {
	var sink bytes.Buffer
	header := NewHeader(4)
	global, err := NewWriter(&sink, header, RandomDraw, false)
	if err != nil {
		t.Fatal(err)
	}
	local, err := NewWriter(nil, header, RandomDraw, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := local.WriteNucleotides(0, []byte("ACGT")); err != nil {
		t.Fatal(err)
	}
	if err := global.Ingest(local); err != nil {
		t.Fatal(err)
	}
	if err := global.Flush(); err != nil {
		t.Fatal(err)
	}

	// Header (13 bytes) + flag (1 byte) + packed payload (1 byte).
	if sink.Len() != 15 {
		t.Errorf("sink.Len() = %d, want 15", sink.Len())
	}
	if local.buf.Len() != 0 {
		t.Error("expected local buffer to be drained after Ingest")
	}
}

func TestWritePairedRequiresPairedHeader(t *testing.T) {
	var sink bytes.Buffer
	w, err := NewWriter(&sink, NewHeader(4), RandomDraw, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WritePaired(0, []byte("ACGT"), []byte("TTTT")); err == nil {
		t.Error("expected error for unpaired header")
	}
}
