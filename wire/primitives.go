// Package wire implements the binary codec for every message that crosses
// a peer socket: little-endian fixed-width primitives, length-prefixed
// strings and sequences, tag-byte optionals, and byte-enum discriminants
// that reject unknown values instead of silently accepting them.
package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/bamilab/quartznet/common"
)

// Writer accumulates an encoded message. It never fails: every write is to
// an in-memory buffer, matching the original implementation's bincode
// serializer, which likewise cannot fail on the encode side.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteRaw(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) WriteHash(h common.Hash) { w.buf = append(w.buf, h[:]...) }

func (w *Writer) WritePublicKey(k common.PublicKey) { w.buf = append(w.buf, k[:]...) }

func (w *Writer) WriteSignature(s common.Signature) { w.buf = append(w.buf, s[:]...) }

// WriteString8 length-prefixes s with a u8, for short bounded strings (titles).
func (w *Writer) WriteString8(s string) {
	w.WriteU8(uint8(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteString16 length-prefixes s with a u16 (descriptions, tags).
func (w *Writer) WriteString16(s string) {
	w.WriteU16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteString32 length-prefixes s with a u32, for unbounded strings.
func (w *Writer) WriteString32(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteOptionHash encodes an optional hash as a tag byte followed by the
// payload when present.
func (w *Writer) WriteOptionHash(h *common.Hash) {
	if h == nil {
		w.WriteU8(0)
		return
	}
	w.WriteU8(1)
	w.WriteHash(*h)
}

// Reader consumes an encoded message, returning MalformedError values
// (never panicking) on any truncation or invalid byte.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Rest returns every unconsumed byte without advancing the cursor.
func (r *Reader) Rest() []byte { return r.buf[r.pos:] }

func (r *Reader) need(n int, field string) error {
	if r.Remaining() < n {
		return common.Malformed(common.MissingData, field)
	}
	return nil
}

func (r *Reader) ReadU8(field string) (uint8, error) {
	if err := r.need(1, field); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadBool(field string) (bool, error) {
	v, err := r.ReadU8(field)
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &common.MalformedError{Kind: common.InvalidBoolean, Field: field}
	}
}

func (r *Reader) ReadU16(field string) (uint16, error) {
	if err := r.need(2, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadU32(field string) (uint32, error) {
	if err := r.need(4, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadU64(field string) (uint64, error) {
	if err := r.need(8, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadRaw(n int, field string) ([]byte, error) {
	if err := r.need(n, field); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func (r *Reader) ReadHash(field string) (common.Hash, error) {
	b, err := r.ReadRaw(common.HashSize, field)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(b), nil
}

func (r *Reader) ReadPublicKey(field string) (common.PublicKey, error) {
	b, err := r.ReadRaw(common.PublicKeySize, field)
	if err != nil {
		return common.PublicKey{}, err
	}
	return common.BytesToPublicKey(b), nil
}

func (r *Reader) ReadSignature(field string) (common.Signature, error) {
	b, err := r.ReadRaw(65, field)
	if err != nil {
		return common.Signature{}, err
	}
	var s common.Signature
	copy(s[:], b)
	return s, nil
}

func (r *Reader) readString(n int, field string) (string, error) {
	b, err := r.ReadRaw(n, field)
	if err != nil {
		return "", err
	}
	if !validUTF8(b) {
		return "", &common.MalformedError{Kind: common.InvalidUtf8, Field: field}
	}
	return string(b), nil
}

func (r *Reader) ReadString8(field string) (string, error) {
	n, err := r.ReadU8(field)
	if err != nil {
		return "", err
	}
	return r.readString(int(n), field)
}

func (r *Reader) ReadString16(field string) (string, error) {
	n, err := r.ReadU16(field)
	if err != nil {
		return "", err
	}
	return r.readString(int(n), field)
}

func (r *Reader) ReadString32(field string) (string, error) {
	n, err := r.ReadU32(field)
	if err != nil {
		return "", err
	}
	if n > math.MaxInt32 {
		return "", &common.MalformedError{Kind: common.MissingData, Field: field}
	}
	return r.readString(int(n), field)
}

// ReadOptionHash decodes a tag byte followed by the payload when present;
// an unrecognized tag byte is InvalidTypeId.
func (r *Reader) ReadOptionHash(field string) (*common.Hash, error) {
	tag, err := r.ReadU8(field)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		h, err := r.ReadHash(field)
		if err != nil {
			return nil, err
		}
		return &h, nil
	default:
		return nil, &common.MalformedError{Kind: common.InvalidTypeId, Field: field}
	}
}

func validUTF8(b []byte) bool {
	return utf8.Valid(b)
}
