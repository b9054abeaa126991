// Package binseq implements the fixed-length BINSEQ record format: a small
// fixed header followed by a flat run of flag-tagged, 2-bit-packed
// nucleotide records. It is grounded on original_source/src/recode/mod.rs's
// use of BinseqHeader and Policy::RandomDraw, reimplemented from scratch
// since no published Go binseq library exists (see DESIGN.md).
package binseq

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/xsra/internal/xerrors"
)

var magic = [4]byte{'B', 'S', 'Q', '1'}

const flagPaired = uint8(1)

// Header is the fixed 13-byte BINSEQ file header: magic, primary segment
// length, extended (paired) segment length (0 if unpaired), and a flag byte.
type Header struct {
	SLen uint32
	XLen uint32
}

// NewHeader builds an unpaired header for fixed-length records of slen.
func NewHeader(slen uint32) Header {
	return Header{SLen: slen}
}

// NewExtendedHeader builds a paired header, mirroring
// recode/mod.rs's BinseqHeader::new_extended.
func NewExtendedHeader(slen, xlen uint32) Header {
	return Header{SLen: slen, XLen: xlen}
}

// Paired reports whether records under this header carry an extended
// (mate) segment.
func (h Header) Paired() bool {
	return h.XLen > 0
}

// RecordSize is the encoded size in bytes of one record's packed payload,
// not counting its flag.
func (h Header) RecordSize() int {
	n := packedLen(int(h.SLen))
	if h.Paired() {
		n += packedLen(int(h.XLen))
	}
	return n
}

// WriteTo serializes the header, satisfying io.WriterTo.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var flags uint8
	if h.Paired() {
		flags = flagPaired
	}
	buf := make([]byte, 0, 13)
	buf = append(buf, magic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, h.SLen)
	buf = binary.LittleEndian.AppendUint32(buf, h.XLen)
	buf = append(buf, flags)
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadHeader parses a Header previously written by WriteTo.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, 13)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, err
	}
	if !bytes.Equal(buf[:4], magic[:]) {
		return Header{}, fmt.Errorf("binseq: bad magic %q", buf[:4])
	}
	return Header{
		SLen: binary.LittleEndian.Uint32(buf[4:8]),
		XLen: binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}

// Policy selects how ambiguous IUPAC bases (anything but A/C/G/T) are
// resolved to the 2-bit alphabet. RandomDraw mirrors binseq's own policy of
// the same name: it is a substitution, not a rejection, so every input
// sequence is always encodable.
type Policy int

const (
	// RandomDraw deterministically substitutes each ambiguous base with one
	// of its IUPAC-compatible bases, keyed by the base's position so that
	// repeated encodes of the same input are reproducible.
	RandomDraw Policy = iota
)

// Writer accumulates 2-bit-packed records in memory and flushes them to an
// underlying sink, mirroring recode/mod.rs's pattern of thread-local
// `Vec`-backed writers periodically ingested into a shared, mutex-guarded
// global writer.
type Writer struct {
	header   Header
	policy   Policy
	headless bool

	mu  sync.Mutex
	buf bytes.Buffer
	dst io.Writer
}

// NewWriter returns a Writer that encodes records under header and flushes
// to dst. If headless is false, the header is written to dst immediately.
func NewWriter(dst io.Writer, header Header, policy Policy, headless bool) (*Writer, error) {
	w := &Writer{header: header, policy: policy, headless: headless, dst: dst}
	if !headless {
		if _, err := header.WriteTo(dst); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// WriteNucleotides encodes a single unpaired record of length header.SLen.
func (w *Writer) WriteNucleotides(flag uint8, seq []byte) error {
	if w.header.Paired() {
		return fmt.Errorf("binseq: header is paired, use WritePaired")
	}
	if uint32(len(seq)) != w.header.SLen {
		return fmt.Errorf("%w: sequence length %d does not match header SLen %d", xerrors.ErrEncode, len(seq), w.header.SLen)
	}
	packed := pack2bit(seq, w.policy)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.WriteByte(flag)
	w.buf.Write(packed)
	return nil
}

// WritePaired encodes one record carrying both a primary and an extended
// (mate) segment.
func (w *Writer) WritePaired(flag uint8, primary, extended []byte) error {
	if !w.header.Paired() {
		return fmt.Errorf("binseq: header is unpaired, use WriteNucleotides")
	}
	if uint32(len(primary)) != w.header.SLen {
		return fmt.Errorf("%w: primary length %d does not match header SLen %d", xerrors.ErrEncode, len(primary), w.header.SLen)
	}
	if uint32(len(extended)) != w.header.XLen {
		return fmt.Errorf("%w: extended length %d does not match header XLen %d", xerrors.ErrEncode, len(extended), w.header.XLen)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.WriteByte(flag)
	w.buf.Write(pack2bit(primary, w.policy))
	w.buf.Write(pack2bit(extended, w.policy))
	return nil
}

// Ingest drains other's buffered records into w, leaving other empty. It is
// safe to call concurrently with writes to other pending threads calling
// Ingest on the same w.
func (w *Writer) Ingest(other *Writer) error {
	other.mu.Lock()
	data := append([]byte(nil), other.buf.Bytes()...)
	other.buf.Reset()
	other.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.buf.Write(data)
	return err
}

// Flush writes w's accumulated buffer to its sink.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.dst.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

func packedLen(n int) int {
	return (n + 3) / 4
}

var baseCode = map[byte]byte{
	'A': 0, 'a': 0,
	'C': 1, 'c': 1,
	'G': 2, 'g': 2,
	'T': 3, 't': 3,
}

// randomDrawTable gives the deterministic substitution table RandomDraw uses
// for each IUPAC ambiguity code, cycling through its compatible bases.
var randomDrawTable = map[byte][]byte{
	'N': {'A', 'C', 'G', 'T'},
	'n': {'A', 'C', 'G', 'T'},
	'R': {'A', 'G'}, 'r': {'A', 'G'},
	'Y': {'C', 'T'}, 'y': {'C', 'T'},
	'S': {'C', 'G'}, 's': {'C', 'G'},
	'W': {'A', 'T'}, 'w': {'A', 'T'},
	'K': {'G', 'T'}, 'k': {'G', 'T'},
	'M': {'A', 'C'}, 'm': {'A', 'C'},
}

func resolveBase(b byte, pos int, policy Policy) byte {
	if code, ok := baseCode[b]; ok {
		return code
	}
	choices, ok := randomDrawTable[b]
	if !ok {
		choices = []byte{'A', 'C', 'G', 'T'}
	}
	return baseCode[choices[pos%len(choices)]]
}

func pack2bit(seq []byte, policy Policy) []byte {
	out := make([]byte, packedLen(len(seq)))
	for i, b := range seq {
		code := resolveBase(b, i, policy)
		out[i/4] |= code << uint((i%4)*2)
	}
	return out
}

// Unpack2bit reverses pack2bit for n bases, the inverse used by decoders
// and by tests to round-trip exact-alphabet sequences.
func Unpack2bit(packed []byte, n int) []byte {
	const alphabet = "ACGT"
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		code := (packed[i/4] >> uint((i%4)*2)) & 0x3
		out[i] = alphabet[code]
	}
	return out
}
