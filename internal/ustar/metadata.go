package ustar

// Metadata is the effective header for a tar entry after merging the ustar
// block with any PaxNext/PaxGlobal/GNU overrides, per spec.md §3.
type Metadata struct {
	Typeflag   FileType
	Mode       uint32
	Devmajor   uint32
	Devminor   uint32
	Gid        uint64
	Uid        uint64
	Mtime      float64
	Size       uint64
	Atime      *float64
	Charset    []byte
	Comment    []byte
	Hdrcharset []byte
	Gname      []byte
	Uname      []byte
	Linkpath   []byte
	Path       []byte
}
