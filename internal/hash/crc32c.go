package hash

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// Update returns the checksum crc extended with data.
func Update(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, castagnoli, data)
}

// Base64CRC32C returns the checksum of data as object stores transmit it:
// the big-endian bytes of the CRC32C in standard base64.
func Base64CRC32C(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], CRC32C(data))
	return base64.StdEncoding.EncodeToString(b[:])
}
