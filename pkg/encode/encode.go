// Package encode implements the text and binary record encoders (spec
// component C3). The FASTQ and FASTA encoders are grounded on
// encoding/fastq/writer.go's line-oriented Writer, generalized from a single
// ID/Seq/Unk/Qual record to xsra's segment-keyed records.
package encode

import (
	"bytes"
	"fmt"

	"github.com/grailbio/xsra/internal/sra"
)

// Format identifies an output encoding.
type Format int

const (
	Fastq Format = iota
	Fasta
	Binseq
	Vbinseq
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case Fastq:
		return "fastq"
	case Fasta:
		return "fasta"
	case Binseq:
		return "binseq"
	case Vbinseq:
		return "vbinseq"
	default:
		return "unknown"
	}
}

// ParseFormat maps a command-line flavor name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "fastq":
		return Fastq, nil
	case "fasta":
		return Fasta, nil
	case "binseq":
		return Binseq, nil
	case "vbinseq":
		return Vbinseq, nil
	default:
		return 0, fmt.Errorf("encode: unknown format %q", s)
	}
}

// TextEncoder renders a single segment as a run of bytes appended to buf.
// Implementations never retain seg's Seq/Qual slices past the call.
type TextEncoder interface {
	Encode(buf *bytes.Buffer, seg sra.Segment) error
}

var newline = byte('\n')

// FastqEncoder writes `@<rid>.<sid>\n<seq>\n+\n<qual>\n`, the per-segment
// generalization of encoding/fastq/writer.go's Write(r *Read) (spec.md §4.3).
type FastqEncoder struct{}

// Encode implements TextEncoder.
func (FastqEncoder) Encode(buf *bytes.Buffer, seg sra.Segment) error {
	fmt.Fprintf(buf, "@%d.%d\n", seg.RID, seg.SID)
	buf.Write(seg.Seq)
	buf.WriteByte(newline)
	buf.WriteByte('+')
	buf.WriteByte(newline)
	buf.Write(seg.Qual)
	buf.WriteByte(newline)
	return nil
}

// FastaEncoder writes `><rid>.<sid>\n<seq>\n`, dropping quality scores.
type FastaEncoder struct{}

// Encode implements TextEncoder.
func (FastaEncoder) Encode(buf *bytes.Buffer, seg sra.Segment) error {
	fmt.Fprintf(buf, ">%d.%d\n", seg.RID, seg.SID)
	buf.Write(seg.Seq)
	buf.WriteByte(newline)
	return nil
}

// NewTextEncoder returns the TextEncoder for f, or an error if f does not
// name a text format (Binseq and Vbinseq are framed binary formats handled
// by pkg/recode, not by a TextEncoder).
func NewTextEncoder(f Format) (TextEncoder, error) {
	switch f {
	case Fastq:
		return FastqEncoder{}, nil
	case Fasta:
		return FastaEncoder{}, nil
	default:
		return nil, fmt.Errorf("encode: %s has no text encoder", f)
	}
}
