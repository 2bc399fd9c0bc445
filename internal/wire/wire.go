// Package wire frames stored cache entries with the timestamp of the write.
// The on-disk backend uses it to enforce TTL expiry (the file itself has no
// notion of per-entry expiry) and the remote backend compares it against the
// region's invalidation watermark.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const version byte = 1

var (
	ErrCorrupt = errors.New("regioncache: corrupt entry")
	magic4     = [...]byte{'R', 'G', 'N', 'C'}
)

// Entry: magic(4) | ver(1) | createdAt unix nanos (u64 be) | vlen(u32 be) | payload(vlen)
func EncodeEntry(createdAt time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 8 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(createdAt.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

func DecodeEntry(b []byte) (createdAt time.Time, payload []byte, err error) {
	const hdr = 4 + 1 + 8 + 4
	if len(b) < hdr || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return time.Time{}, nil, ErrCorrupt
	}

	off := 5

	nanos := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || off+vlen != len(b) { // strict: no trailing bytes
		return time.Time{}, nil, ErrCorrupt
	}

	return time.Unix(0, int64(nanos)), b[off : off+vlen], nil
}
