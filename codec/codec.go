// Package codec provides value (de)serialization for regioncache regions.
// Region values are dynamically typed, so every codec round-trips `any`.
// Numeric types may widen on decode (msgpack and CBOR decode integers as
// int64/uint64); cached readers should not depend on exact input widths.
package codec

// Codec encodes/decodes values to []byte for storage.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}
