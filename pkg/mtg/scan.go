package mtg

import (
	"encoding/binary"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Scan reads values into dest in order and returns the unread bytes
func Scan(body []byte, dest ...interface{}) ([]byte, error) {
	for _, d := range dest {
		var err error
		if body, err = scan(body, d); err != nil {
			return body, err
		}
	}

	return body, nil
}

func scan(body []byte, d interface{}) ([]byte, error) {
	switch d := d.(type) {
	case *int8:
		if len(body) < 1 {
			return body, ErrShortBuffer
		}
		*d = int8(body[0])
		return body[1:], nil
	case *uint8:
		if len(body) < 1 {
			return body, ErrShortBuffer
		}
		*d = body[0]
		return body[1:], nil
	case *bool:
		if len(body) < 1 {
			return body, ErrShortBuffer
		}
		*d = body[0] == 1
		return body[1:], nil
	case *int16:
		if len(body) < 2 {
			return body, ErrShortBuffer
		}
		*d = int16(binary.BigEndian.Uint16(body))
		return body[2:], nil
	case *uint16:
		if len(body) < 2 {
			return body, ErrShortBuffer
		}
		*d = binary.BigEndian.Uint16(body)
		return body[2:], nil
	case *int32:
		if len(body) < 4 {
			return body, ErrShortBuffer
		}
		*d = int32(binary.BigEndian.Uint32(body))
		return body[4:], nil
	case *uint32:
		if len(body) < 4 {
			return body, ErrShortBuffer
		}
		*d = binary.BigEndian.Uint32(body)
		return body[4:], nil
	case *int64:
		if len(body) < 8 {
			return body, ErrShortBuffer
		}
		*d = int64(binary.BigEndian.Uint64(body))
		return body[8:], nil
	case *uint64:
		if len(body) < 8 {
			return body, ErrShortBuffer
		}
		*d = binary.BigEndian.Uint64(body)
		return body[8:], nil
	case *int:
		if len(body) < 8 {
			return body, ErrShortBuffer
		}
		*d = int(int64(binary.BigEndian.Uint64(body)))
		return body[8:], nil
	case *uuid.UUID:
		if len(body) < uuid.Size {
			return body, ErrShortBuffer
		}
		id, err := uuid.FromBytes(body[:uuid.Size])
		if err != nil {
			return body, err
		}
		*d = id
		return body[uuid.Size:], nil
	case *string:
		b, remain, err := readBytes(body)
		if err != nil {
			return body, err
		}
		*d = string(b)
		return remain, nil
	case *[]byte:
		b, remain, err := readBytes(body)
		if err != nil {
			return body, err
		}
		*d = append([]byte{}, b...)
		return remain, nil
	case *RawMessage:
		b, remain, err := readBytes(body)
		if err != nil {
			return body, err
		}
		*d = append(RawMessage{}, b...)
		return remain, nil
	case *decimal.Decimal:
		b, remain, err := readBytes(body)
		if err != nil {
			return body, err
		}
		v, err := decimal.NewFromString(string(b))
		if err != nil {
			return body, fmt.Errorf("%w: %s", ErrInvalidValue, err)
		}
		*d = v
		return remain, nil
	default:
		return body, fmt.Errorf("%w: %T", ErrUnsupported, d)
	}
}

func readBytes(body []byte) ([]byte, []byte, error) {
	if len(body) < 2 {
		return nil, body, ErrShortBuffer
	}

	size := int(binary.BigEndian.Uint16(body))
	body = body[2:]
	if len(body) < size {
		return nil, body, ErrShortBuffer
	}

	return body[:size], body[size:], nil
}
