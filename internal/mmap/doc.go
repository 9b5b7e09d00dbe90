// Package mmap provides read-only file mappings for shard files and
// anonymous scratch mappings used to assemble the logical embedding table.
//
// On non-unix platforms both fall back to ordinary heap memory so that the
// package stays portable; the zero-copy fast path requires unix mmap.
package mmap
