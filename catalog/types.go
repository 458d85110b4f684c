package catalog

// Hash is a SHA-256 content digest, used both as the fragment dedup key and
// as a compound's whole-stream integrity check.
type Hash [32]byte

// Compound is a named, user-visible byte stream: an ordered fragment
// sequence plus enough metadata to reconstruct and verify it.
type Compound struct {
	Name string

	TotalSize int64
	TotalHash Hash

	// FragmentSize is the fixed chunk size this compound was split with.
	// Two compounds only dedup against each other if FragmentSize and
	// EncapsulationSpec agree.
	FragmentSize int64

	// EncapsulationSpec names the first-layer codecs applied to every
	// fragment before hashing: [compressor, wrapper].
	Compressor string
	Wrapper    string

	FragmentSequence []Hash

	CreatedAt int64 // unix seconds
	UpdatedAt int64
}

// FragmentRef locates a fragment's body inside the inner payload of the
// resource that carries it.
type FragmentRef struct {
	ResourceID string
	Offset     int64
	Length     int64
}

// Fragment is a content-addressed, first-layer-encapsulated chunk shared
// across any number of compounds.
type Fragment struct {
	Hash     Hash
	Size     int64 // bytes of the post-encapsulation body
	Ref      FragmentRef
	Refcount int64
}

// FragmentLayoutEntry records where one fragment sits inside a resource's
// inner (pre-wrap, pre-compress) payload.
type FragmentLayoutEntry struct {
	Hash   Hash
	Offset int64
	Length int64
}

// Resource is a second-layer-encapsulated container of one or more
// fragment bodies, stored as a single blob on the backend.
type Resource struct {
	ID             string // locally generated UUID
	BackendKey     string // identifier returned by the backend on upload
	FragmentLayout []FragmentLayoutEntry
	Compressor     string
	Wrapper        string
	TotalSize      int64 // post-wrap bytes on the backend
	CreatedAt      int64
}
