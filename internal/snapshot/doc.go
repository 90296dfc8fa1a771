// Package snapshot defines the on-store framing of a serialized bitmap.
//
// Layout (little endian):
//
//	offset size field
//	0      4    magic "BGS1"
//	4      1    version
//	5      1    compression (codec.Compression)
//	6      2    flags (reserved, zero)
//	8      8    raw length (portable roaring bytes)
//	16     8    payload length
//	24     4    CRC32C of the payload
//	28     n    payload
//
// The payload is the portable roaring serialization, compressed with the
// recorded algorithm.
package snapshot
