package encode

import (
	"bytes"
	"testing"

	"github.com/grailbio/xsra/internal/sra"
)

func TestFastqEncoder(t *testing.T) {
	seg := sra.Segment{RID: 7, SID: 1, Seq: []byte("ACGT"), Qual: []byte("IIII")}
	var buf bytes.Buffer
	if err := (FastqEncoder{}).Encode(&buf, seg); err != nil {
		t.Fatal(err)
	}
	want := "@7.1\nACGT\n+\nIIII\n"
	if buf.String() != want {
		t.Errorf("Encode() = %q, want %q", buf.String(), want)
	}
}

func TestFastaEncoder(t *testing.T) {
	seg := sra.Segment{RID: 7, SID: 0, Seq: []byte("ACGT")}
	var buf bytes.Buffer
	if err := (FastaEncoder{}).Encode(&buf, seg); err != nil {
		t.Fatal(err)
	}
	want := ">7.0\nACGT\n"
	if buf.String() != want {
		t.Errorf("Encode() = %q, want %q", buf.String(), want)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"fastq": Fastq, "fasta": Fasta, "binseq": Binseq, "vbinseq": Vbinseq}
	for name, want := range cases {
		got, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseFormat("bogus"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNewTextEncoderRejectsBinary(t *testing.T) {
	if _, err := NewTextEncoder(Binseq); err == nil {
		t.Error("expected error for Binseq")
	}
	if _, err := NewTextEncoder(Vbinseq); err == nil {
		t.Error("expected error for Vbinseq")
	}
}
