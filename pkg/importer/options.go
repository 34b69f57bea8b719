package importer

import "runtime"

// Options controls how atlas files are loaded.
type Options struct {
	// Parallel enables concurrent loading when several files are imported.
	Parallel bool

	// Workers is the number of loader goroutines. If 0, defaults to
	// runtime.NumCPU(). Only used when Parallel is true.
	Workers int

	// SkipErrors continues the import when individual files fail. Failed
	// files are left out and their errors returned. When false, the first
	// failure aborts the import.
	SkipErrors bool

	// Progress is called after each file is loaded, successfully or not,
	// with the number of files processed so far.
	Progress func(loaded, total int)
}

// DefaultOptions returns options loading in parallel on every CPU and
// aborting on the first corrupt file.
func DefaultOptions() Options {
	return Options{
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		SkipErrors: false,
	}
}
