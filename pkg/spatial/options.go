package spatial

// Options configures a Resolver.
type Options struct {
	// ClickRadius is the half edge, in meters, of the box around a click
	// that candidates must intersect.
	ClickRadius float64

	// PointPrevalence is the distance, in meters, below which a node or
	// point outranks an edge, line or area regardless of distances.
	PointPrevalence float64
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		ClickRadius:     200,
		PointPrevalence: 2,
	}
}
