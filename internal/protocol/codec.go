package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned when a payload cannot be decoded.
	ErrMalformed = errors.New("malformed message")
	// ErrUnexpectedMessage is returned for a well formed message that is not
	// valid at this point of the conversation.
	ErrUnexpectedMessage = errors.New("unexpected message")
)

// Decoding limits. Anything larger is rejected as malformed before
// allocating.
const (
	MaxStringLength = 1 << 10
	MaxListLength   = 1 << 8
)

// Writer appends little-endian encoded values to a packet. A packet may hold
// several messages back to back.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty packet writer.
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) U8(v uint8) { w.buf.WriteByte(v) }

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
		return
	}
	w.U8(0)
}

// Type starts a new message.
func (w *Writer) Type(t TransferType) { w.U32(uint32(t)) }

// Text writes a u32 length followed by the raw bytes.
func (w *Writer) Text(s string) {
	w.U32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *Writer) U32List(list []uint32) {
	w.U32(uint32(len(list)))
	for _, v := range list {
		w.U32(v)
	}
}

func (w *Writer) CardData(c CardData) {
	w.U32(c.ID)
	w.U32(c.Attack)
	w.U32(c.Health)
	w.U32(c.Shield)
	w.U32(c.ShieldType)
}

func (w *Writer) CardDataList(list []CardData) {
	w.U32(uint32(len(list)))
	for _, c := range list {
		w.CardData(c)
	}
}

func (w *Writer) SelectionList(list []CardToSelect) {
	w.U32(uint32(len(list)))
	for _, s := range list {
		w.U32(uint32(s))
	}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

// Bytes returns the packet. The slice stays valid until the next write.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Reader decodes little-endian values from a packet.
type Reader struct {
	data []byte
	off  int
}

// NewReader reads from data without copying it.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Done reports whether the whole packet was consumed.
func (r *Reader) Done() bool { return r.off >= len(r.data) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, r.off, r.Remaining(), ErrMalformed)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("bool byte %d: %w", v, ErrMalformed)
}

func (r *Reader) Type() (TransferType, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	t := TransferType(v)
	if !t.Valid() {
		return 0, fmt.Errorf("transfer type %d: %w", v, ErrMalformed)
	}
	return t, nil
}

func (r *Reader) length(limit int) (int, error) {
	n, err := r.U32()
	if err != nil {
		return 0, err
	}
	if n > uint32(limit) {
		return 0, fmt.Errorf("length %d over limit %d: %w", n, limit, ErrMalformed)
	}
	return int(n), nil
}

func (r *Reader) Text() (string, error) {
	n, err := r.length(MaxStringLength)
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) U32List() ([]uint32, error) {
	n, err := r.length(MaxListLength)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		if out[i], err = r.U32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Reader) CardData() (CardData, error) {
	var c CardData
	fields := []*uint32{&c.ID, &c.Attack, &c.Health, &c.Shield, &c.ShieldType}
	for _, f := range fields {
		v, err := r.U32()
		if err != nil {
			return CardData{}, err
		}
		*f = v
	}
	return c, nil
}

func (r *Reader) CardDataList() ([]CardData, error) {
	n, err := r.length(MaxListLength)
	if err != nil {
		return nil, err
	}
	out := make([]CardData, n)
	for i := range out {
		if out[i], err = r.CardData(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Reader) SelectionList() ([]CardToSelect, error) {
	raw, err := r.U32List()
	if err != nil {
		return nil, err
	}
	out := make([]CardToSelect, len(raw))
	for i, v := range raw {
		if v > uint32(SelectSelfHand) {
			return nil, fmt.Errorf("selection zone %d: %w", v, ErrMalformed)
		}
		out[i] = CardToSelect(v)
	}
	return out, nil
}
