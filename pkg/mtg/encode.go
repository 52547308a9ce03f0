package mtg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// RawMessage is a length prefixed byte slice kept as is
type RawMessage []byte

var (
	ErrTooLong      = errors.New("mtg: value too long")
	ErrShortBuffer  = errors.New("mtg: short buffer")
	ErrUnsupported  = errors.New("mtg: unsupported type")
	ErrInvalidValue = errors.New("mtg: invalid value")
)

// Encode writes values in order. Variable length values carry a uint16 length prefix.
func Encode(values ...interface{}) ([]byte, error) {
	var buf bytes.Buffer
	for _, v := range values {
		if err := write(&buf, v); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func write(buf *bytes.Buffer, v interface{}) error {
	switch v := v.(type) {
	case int8:
		buf.WriteByte(byte(v))
	case uint8:
		buf.WriteByte(v)
	case bool:
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case int16:
		return binary.Write(buf, binary.BigEndian, v)
	case uint16:
		return binary.Write(buf, binary.BigEndian, v)
	case int32:
		return binary.Write(buf, binary.BigEndian, v)
	case uint32:
		return binary.Write(buf, binary.BigEndian, v)
	case int64:
		return binary.Write(buf, binary.BigEndian, v)
	case uint64:
		return binary.Write(buf, binary.BigEndian, v)
	case int:
		return binary.Write(buf, binary.BigEndian, int64(v))
	case uuid.UUID:
		buf.Write(v.Bytes())
	case string:
		return writeBytes(buf, []byte(v))
	case []byte:
		return writeBytes(buf, v)
	case RawMessage:
		return writeBytes(buf, v)
	case decimal.Decimal:
		return writeBytes(buf, []byte(v.String()))
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}

	return nil
}

func writeBytes(buf *bytes.Buffer, b []byte) error {
	if len(b) > math.MaxUint16 {
		return ErrTooLong
	}

	_ = binary.Write(buf, binary.BigEndian, uint16(len(b)))
	buf.Write(b)
	return nil
}
