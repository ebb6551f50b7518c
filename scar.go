// Package scar implements the SCAR archive format: a pax/ustar-compatible
// tar byte stream carrying multiple independently decodable compressed
// members, with an appended index, checkpoint table, and tail pointer that
// give random access without scanning the whole archive.
//
// A [Writer] builds an archive by streaming entries in order; a [Reader]
// opens one from a seekable source, discovering the tail and checkpoint
// table eagerly so later calls to [Reader.Index] and [Reader.ReadItem]
// never themselves fail on tail-shaped errors.
package scar

import "github.com/scar-format/scar/internal/ustar"

// Metadata is the effective header for an archive entry: a ustar block
// merged with any pax/GNU overrides that applied to it.
type Metadata = ustar.Metadata

// FileType names the kind of entry a [Metadata] describes.
type FileType = ustar.FileType

// Recognized file types, re-exported from [internal/ustar] for callers
// that need to build or inspect a [Metadata] without importing internals.
const (
	TypeFile      = ustar.TypeFile
	TypeHardlink  = ustar.TypeHardlink
	TypeSymlink   = ustar.TypeSymlink
	TypeChardev   = ustar.TypeChardev
	TypeBlockdev  = ustar.TypeBlockdev
	TypeDirectory = ustar.TypeDirectory
	TypeFifo      = ustar.TypeFifo
	TypeUnknown   = ustar.TypeUnknown
)
