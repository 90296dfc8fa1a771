// Package cursor provides single-direction cursors over roaring bitmaps.
//
// Forward decodes elements in blocks through roaring's many-iterator and
// serves both per-element and bulk reads from the same position, so the two
// can be interleaved freely. Backward walks the bitmap in descending order.
//
// Both cursors are monotonic: once a cursor reports exhaustion it never
// yields another element.
package cursor
