package datastore

import (
	"encoding/binary"
	"encoding/json"
	"math/bits"
	"time"

	"github.com/pkg/errors"
)

var hostBigEndian = binary.NativeEndian.Uint16([]byte{0x12, 0x34}) == 0x1234

// ntohll converts a 64-bit value from network to host byte order. A no-op
// on big-endian hosts.
func ntohll(x uint64) uint64 {
	if hostBigEndian {
		return x
	}
	return bits.ReverseBytes64(x)
}

// The decode helpers below map column values out of a binary-format
// result row into payload fields. The driver decodes most values before
// they reach us; committed bigint columns can still cross as raw network
// order bytes and go through ntohll.

func decodeInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int:
		return int64(t), nil
	case []byte:
		if len(t) != 8 {
			return 0, errors.Errorf("cannot decode %d raw bytes as bigint", len(t))
		}
		// Raw column bytes arrive in network order.
		return int64(ntohll(binary.NativeEndian.Uint64(t))), nil
	}
	return 0, errors.Errorf("cannot decode %T as bigint", v)
}

func decodeInt(v any) (int, error) {
	n, err := decodeInt64(v)
	return int(n), err
}

func decodeString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case nil:
		return "", nil
	}
	return "", errors.Errorf("cannot decode %T as text", v)
}

func decodeBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	case nil:
		return nil, nil
	}
	return nil, errors.Errorf("cannot decode %T as bytea", v)
}

func decodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case int64:
		return time.Unix(t, 0), nil
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, errors.Errorf("cannot decode %T as timestamp", v)
}

// payloadAs asserts the handle payload to the store's entity type.
// A mismatch is a programming error in the caller, reported through the
// connection's cached diagnostic rather than a panic.
func payloadAs[T any](c *Conn, h *ObjectHandle, op string) (*T, bool) {
	obj, ok := h.Payload.(*T)
	if !ok {
		c.setError(op, h.ID, errors.Errorf("payload is %T, want %T", h.Payload, (*T)(nil)))
		return nil, false
	}
	return obj, true
}

// decodeAttributes maps a jsonb attribute column back to the attribute
// list. The driver may hand the column over as raw bytes or as already
// unmarshalled generic values depending on the result format.
func decodeAttributes(v any) ([]Attribute, error) {
	var raw []byte
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		raw = t
	case string:
		raw = []byte(t)
	default:
		var err error
		raw, err = json.Marshal(t)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var attrs []Attribute
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, errors.WithStack(err)
	}
	return attrs, nil
}
