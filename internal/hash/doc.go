// Package hash provides the checksum used to validate stored snapshots.
//
// All checksums use CRC32-Castagnoli (CRC32C), which Go's hash/crc32
// accelerates in hardware on x86 (SSE4.2) and ARM64. The same checksum is
// sent to S3 as the object's x-amz-checksum-crc32c, so a frame is verified
// both in transit and when it is decoded:
//
//	sum := hash.CRC32C(payload)
//	sum = hash.Update(sum, more)
//	header := hash.Base64CRC32C(frame)
package hash
