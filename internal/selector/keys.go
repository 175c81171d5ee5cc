package selector

import (
	"errors"
	"io"
	"os"
	"time"
)

// Key is a decoded logical key event.
type Key int

const (
	KeyOther Key = iota
	KeyEnter
	KeyCancel
	KeyUp
	KeyDown
	KeyDelete
	KeyEscape // bare Escape with no sequence bytes following
)

// escTimeout bounds the wait for escape-sequence continuation bytes. An
// arrow key delivers its whole sequence within a few milliseconds; a
// human pressing plain Escape does not, so a short deadline separates
// the two. This must be a real wall-clock bound: blocking here would
// make plain Escape indistinguishable from an arrow in progress.
const escTimeout = 50 * time.Millisecond

// Decoder turns a raw terminal byte stream into Key events.
type Decoder struct {
	in  *os.File
	buf [1]byte
}

// NewDecoder wraps a raw-mode terminal input.
func NewDecoder(in *os.File) *Decoder {
	return &Decoder{in: in}
}

// Next blocks for one input byte and decodes it. Multi-byte arrow
// sequences consume their continuation bytes with a bounded timeout.
func (d *Decoder) Next() (Key, error) {
	b, err := d.readByte()
	if err != nil {
		return KeyOther, err
	}
	switch b {
	case '\r', '\n':
		return KeyEnter, nil
	case 'q', 'Q', 0x03: // ctrl-c arrives as a byte in raw mode
		return KeyCancel, nil
	case 'k':
		return KeyUp, nil
	case 'j':
		return KeyDown, nil
	case 'd', 'D':
		return KeyDelete, nil
	case 0x1b:
		return d.decodeEscape()
	default:
		return KeyOther, nil
	}
}

// decodeEscape disambiguates a bare Escape from an arrow sequence by
// reading up to two continuation bytes under deadline. ESC [ A / ESC O A
// is Up, B is Down; anything else is consumed noise.
func (d *Decoder) decodeEscape() (Key, error) {
	b, ok, err := d.readByteTimeout()
	if err != nil {
		return KeyOther, err
	}
	if !ok {
		return KeyEscape, nil
	}
	if b != '[' && b != 'O' {
		return KeyOther, nil
	}
	b, ok, err = d.readByteTimeout()
	if err != nil {
		return KeyOther, err
	}
	if !ok {
		return KeyEscape, nil
	}
	switch b {
	case 'A':
		return KeyUp, nil
	case 'B':
		return KeyDown, nil
	default:
		return KeyOther, nil
	}
}

func (d *Decoder) readByte() (byte, error) {
	n, err := d.in.Read(d.buf[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return d.buf[0], nil
}

// readByteTimeout reads one byte with the escape deadline. ok is false
// when the deadline expired with no byte available. If the input does
// not support deadlines, the sequence cannot be awaited safely, so the
// escape is treated as bare.
func (d *Decoder) readByteTimeout() (b byte, ok bool, err error) {
	if err := d.in.SetReadDeadline(time.Now().Add(escTimeout)); err != nil {
		return 0, false, nil
	}
	defer d.in.SetReadDeadline(time.Time{})

	n, err := d.in.Read(d.buf[:])
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	return d.buf[0], true, nil
}
