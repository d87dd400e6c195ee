package archives

import "runtime"

// CompressionMethod selects how file payloads are stored inside the archive.
type CompressionMethod int

const (
	// Deflate compresses payloads, falling back to Stored per entry when
	// compression doesn't shrink the payload.
	Deflate CompressionMethod = iota
	// Stored writes payloads verbatim.
	Stored
)

// CompressionLevel type for specifying a compression level.
type CompressionLevel int

// Compression levels from fastest (low compression ratio) to slowest
// (high compression ratio).
const (
	FastestCompression CompressionLevel = -2
	FastCompression    CompressionLevel = -1
	DefaultCompression CompressionLevel = 0
	SlowCompression    CompressionLevel = 1
	SlowestCompression CompressionLevel = 2
)

var flateLevels = map[CompressionLevel]int{
	FastestCompression: 1,
	FastCompression:    2,
	DefaultCompression: 5,
	SlowCompression:    7,
	SlowestCompression: 9,
}

// Options configures archive creation and extraction. The core never reads
// ambient state: concurrency, symlink and failure policies all arrive here,
// set by the CLI or the embedding application. The zero value gives deflate
// compression, a pool sized to the available CPUs, symlinks skipped, and
// failures aggregated.
type Options struct {
	// Method is the compression method for file entries.
	Method CompressionMethod

	// Level tunes the deflate compressor.
	Level CompressionLevel

	// Concurrency bounds the worker pool compressing entries. Values below
	// one mean "number of CPUs".
	Concurrency int

	// FollowSymlinks resolves symlinks during collection instead of skipping
	// them. Symlink cycles are then detected and fail with an invalid path
	// error.
	FollowSymlinks bool

	// FailFast aborts archive creation on the first per-entry failure
	// instead of processing the remaining entries and reporting all
	// failures at once.
	FailFast bool

	// Exclude holds doublestar patterns matched against archive-relative
	// names; matching files and directory subtrees are not archived.
	Exclude []string
}

func (o *Options) concurrency() int {
	if o == nil || o.Concurrency < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Concurrency
}

func (o *Options) method() CompressionMethod {
	if o == nil {
		return Deflate
	}
	return o.Method
}

func (o *Options) flateLevel() int {
	if o == nil {
		return flateLevels[DefaultCompression]
	}
	level, ok := flateLevels[o.Level]
	if !ok {
		return flateLevels[DefaultCompression]
	}
	return level
}

func (o *Options) followSymlinks() bool {
	return o != nil && o.FollowSymlinks
}

func (o *Options) failFast() bool {
	return o != nil && o.FailFast
}

func (o *Options) exclude() []string {
	if o == nil {
		return nil
	}
	return o.Exclude
}
