// Package vbinseq implements the block-framed VBINSEQ record format: a
// header describing which optional fields are present, followed by a
// sequence of length-prefixed blocks, each holding a run of
// length-prefixed variable-length records (seq, optional qual, optional
// mate). Grounded on original_source/src/recode/mod.rs's
// VBinseqHeader::with_capacity and VBinseqWriterBuilder, reimplemented from
// scratch for the same reason as pkg/encode/binseq (see DESIGN.md).
package vbinseq

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

var magic = [4]byte{'V', 'B', 'Q', '1'}

const (
	flagQuality = uint8(1) << 0
	flagPaired  = uint8(1) << 1
)

// Header describes the fields every record in the stream carries.
type Header struct {
	BlockSize  uint64
	HasQuality bool
	Paired     bool
}

// WithCapacity constructs a Header, mirroring
// VBinseqHeader::with_capacity(block_size, qual, ..., paired).
func WithCapacity(blockSize uint64, hasQuality, paired bool) Header {
	return Header{BlockSize: blockSize, HasQuality: hasQuality, Paired: paired}
}

// WriteTo serializes the header.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var flags uint8
	if h.HasQuality {
		flags |= flagQuality
	}
	if h.Paired {
		flags |= flagPaired
	}
	buf := make([]byte, 0, 13)
	buf = append(buf, magic[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.BlockSize)
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
		return Header{}, fmt.Errorf("vbinseq: bad magic %q", buf[:4])
	}
	flags := buf[12]
	return Header{
		BlockSize:  binary.LittleEndian.Uint64(buf[4:12]),
		HasQuality: flags&flagQuality != 0,
		Paired:     flags&flagPaired != 0,
	}, nil
}

// Writer frames variable-length records into length-prefixed blocks,
// mirroring recode/mod.rs's thread-local-writer-ingested-into-shared-writer
// pattern from pkg/encode/binseq. A block holds whatever was written or
// ingested since the previous Flush; BlockSize is recorded in the header
// but does not bound the length of a block.
type Writer struct {
	header   Header
	headless bool

	mu    sync.Mutex
	block bytes.Buffer // current, not-yet-flushed block of records
	dst   io.Writer
}

// NewWriter returns a Writer that encodes records under header and flushes
// completed blocks to dst. If headless is false, the header is written to
// dst immediately.
func NewWriter(dst io.Writer, header Header, headless bool) (*Writer, error) {
	w := &Writer{header: header, headless: headless, dst: dst}
	if !headless {
		if _, err := header.WriteTo(dst); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// WriteRecord appends one record to the current block. qual must be nil
// unless the header declares HasQuality, and mate must be nil unless the
// header declares Paired.
func (w *Writer) WriteRecord(seq, qual, mate []byte) error {
	if (qual != nil) != w.header.HasQuality {
		return fmt.Errorf("vbinseq: quality presence does not match header")
	}
	if (mate != nil) != w.header.Paired {
		return fmt.Errorf("vbinseq: mate presence does not match header")
	}

	var rec bytes.Buffer
	writeField(&rec, seq)
	if w.header.HasQuality {
		writeField(&rec, qual)
	}
	if w.header.Paired {
		writeField(&rec, mate)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.block.Write(rec.Bytes())
	return nil
}

func writeField(buf *bytes.Buffer, data []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
}

// Ingest drains other's pending block into w, leaving other empty.
func (w *Writer) Ingest(other *Writer) error {
	other.mu.Lock()
	data := append([]byte(nil), other.block.Bytes()...)
	other.block.Reset()
	other.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.block.Write(data)
	return err
}

// Flush writes the current block to dst as a single length-prefixed frame
// and resets it, regardless of whether BlockSize has been reached — callers
// (pkg/recode) decide the flush cadence.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.block.Len() == 0 {
		return nil
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(w.block.Len()))
	if _, err := w.dst.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.dst.Write(w.block.Bytes()); err != nil {
		return err
	}
	w.block.Reset()
	return nil
}
