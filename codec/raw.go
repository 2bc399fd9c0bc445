package codec

import "fmt"

// Bytes is an identity codec for []byte values. Useful when cached values are
// already raw byte slices and only the entry framing is wanted.
type Bytes struct{}

func (Bytes) Encode(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("codec: %T is not []byte", v)
	}
	return b, nil
}
func (Bytes) Decode(b []byte) (any, error) { return b, nil }
