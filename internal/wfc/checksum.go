package wfc

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// GridChecksum hashes a canonical byte serialization of the placements
// (dimensions, then row-major tile id and rotation per cell) with
// BLAKE2b-256. Two runs produced the same grid exactly when their
// checksums match.
func GridChecksum(width, depth int, placements []Placement) string {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(width))
	binary.Write(&buf, binary.LittleEndian, int32(depth))
	for _, p := range placements {
		if p.TileID == "" {
			buf.WriteByte(0xff)
			continue
		}
		buf.WriteString(p.TileID)
		buf.WriteByte(0x00)
		buf.WriteByte(byte(p.Rotation & 0x03))
	}
	sum := blake2b.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
