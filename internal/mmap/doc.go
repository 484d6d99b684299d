// Package mmap maps database container files read-only into memory.
//
// LocalStore serves every container read through a Mapping, so dataset
// sections (the transfer-function tensor in particular) are copied straight
// out of the page cache instead of through an extra kernel buffer.
//
// Unix uses mmap(2) with madvise(2) hints; Windows uses
// CreateFileMapping/MapViewOfFile and ignores hints.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch slices returned by Bytes or Slice after Close.
package mmap
