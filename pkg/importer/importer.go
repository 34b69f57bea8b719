// Package importer turns atlas files into map layers.
//
// Importing loads every file, merges them into one atlas, converts it into
// a data set and wraps the result in a view.Layer:
//
//	imp := importer.New(importer.DefaultOptions())
//	layer, errs := imp.Import(ctx, []string{"DMA_8-123-45.atlas.gz"}, mapView, host.NopProgress{})
//	if len(errs) > 0 {
//	    log.Fatal(errs[0])
//	}
package importer

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/data"
	"github.com/beetlebugorg/atlasreader/pkg/host"
	"github.com/beetlebugorg/atlasreader/pkg/view"
)

// Extensions lists the accepted file extensions.
var Extensions = []string{".atlas", ".atlas.gz"}

// Accepts reports whether path names an atlas file.
func Accepts(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Expand resolves glob patterns such as "atlases/**/*.atlas.gz" to the
// atlas files they match, sorted and without duplicates. Patterns without
// glob characters are returned as is when accepted.
func Expand(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[{") {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if Accepts(m) && !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Importer loads atlas files into layers.
type Importer struct {
	log    *logrus.Entry
	loader *atlas.Loader
	cache  *Cache
	opts   Options
}

// New creates an importer reading files with the default afs service.
func New(opts Options) *Importer {
	return &Importer{
		log:    logrus.NewEntry(logrus.StandardLogger()).WithField("component", "importer"),
		loader: atlas.NewLoader(),
		opts:   opts,
	}
}

// WithLoader replaces the atlas loader.
func (imp *Importer) WithLoader(l *atlas.Loader) *Importer {
	imp.loader = l
	return imp
}

// WithCache makes the importer read atlases through c.
func (imp *Importer) WithCache(c *Cache) *Importer {
	imp.cache = c
	return imp
}

// WithLogger replaces the logger.
func (imp *Importer) WithLogger(log *logrus.Entry) *Importer {
	imp.log = log
	return imp
}

// Import loads paths, merges them and builds a layer named after the atlas.
// When mapView is not nil it is zoomed to the layer bounds.
//
// With SkipErrors the layer is built from the files that loaded and the
// errors of the others are returned along with it. Otherwise any failure
// returns a nil layer. Load failures match ErrCorruptAtlas.
func (imp *Importer) Import(ctx context.Context, paths []string, mapView host.MapView, progress host.ProgressMonitor) (*view.Layer, []error) {
	if len(paths) == 0 {
		return nil, []error{ErrNoFiles}
	}
	if progress == nil {
		progress = host.NopProgress{}
	}

	atlases, errs := imp.loadAll(ctx, paths, progress)
	if len(atlases) == 0 || (len(errs) > 0 && !imp.opts.SkipErrors) {
		return nil, errs
	}

	a := atlases[0]
	if len(atlases) > 1 {
		names := make([]string, len(atlases))
		for i, at := range atlases {
			names[i] = at.Name()
		}
		merged, err := atlas.Merge(strings.Join(names, "+"), atlases...)
		if err != nil {
			return nil, append(errs, &CorruptAtlasError{Path: strings.Join(paths, ","), Err: err})
		}
		a = merged
	}

	builder := data.NewBuilder().WithLogger(imp.log.WithField("atlas", a.Name()))
	start := time.Now()
	ds := builder.Build(a, progress)
	imp.log.WithFields(logrus.Fields{
		"atlas":      a.Name(),
		"primitives": ds.Len(),
		"elapsed":    time.Since(start).String(),
	}).Info("atlas converted")

	bounds, _ := builder.Bounds()
	layer := view.NewLayer("Atlas: "+a.Name(), a, ds, bounds)
	if mapView != nil {
		mapView.ZoomTo(bounds)
	}
	return layer, errs
}

// loadAll loads paths with a worker pool, keeping the input order.
func (imp *Importer) loadAll(ctx context.Context, paths []string, progress host.ProgressMonitor) ([]*atlas.MemoryAtlas, []error) {
	if !imp.opts.Parallel || len(paths) == 1 {
		return imp.loadSerial(ctx, paths, progress)
	}

	workers := imp.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	type loadResult struct {
		index int
		atlas *atlas.MemoryAtlas
		err   error
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, len(paths))
	results := make(chan loadResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				if err := ctx.Err(); err != nil {
					results <- loadResult{index: index, err: err}
					continue
				}
				a, err := imp.load(ctx, paths[index], progress)
				results <- loadResult{index: index, atlas: a, err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	loadedByIndex := make(map[int]*atlas.MemoryAtlas)
	var errs []error
	loaded := 0
	for result := range results {
		loaded++
		if imp.opts.Progress != nil {
			imp.opts.Progress(loaded, len(paths))
		}
		if result.err != nil {
			if !imp.opts.SkipErrors {
				if len(errs) == 0 {
					errs = append(errs, result.err)
				}
				cancel()
				continue
			}
			errs = append(errs, result.err)
			continue
		}
		loadedByIndex[result.index] = result.atlas
	}

	atlases := make([]*atlas.MemoryAtlas, 0, len(loadedByIndex))
	for i := range paths {
		if a, ok := loadedByIndex[i]; ok {
			atlases = append(atlases, a)
		}
	}
	return atlases, errs
}

func (imp *Importer) loadSerial(ctx context.Context, paths []string, progress host.ProgressMonitor) ([]*atlas.MemoryAtlas, []error) {
	atlases := make([]*atlas.MemoryAtlas, 0, len(paths))
	var errs []error
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return atlases, append(errs, err)
		}
		a, err := imp.load(ctx, path, progress)
		if imp.opts.Progress != nil {
			imp.opts.Progress(i+1, len(paths))
		}
		if err != nil {
			errs = append(errs, err)
			if !imp.opts.SkipErrors {
				return nil, errs
			}
			continue
		}
		atlases = append(atlases, a)
	}
	return atlases, errs
}

func (imp *Importer) load(ctx context.Context, path string, progress host.ProgressMonitor) (*atlas.MemoryAtlas, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	progress.SetCustomText("Parsing Atlas: " + abs)

	load := func() (*atlas.MemoryAtlas, error) { return imp.loader.Load(ctx, abs) }
	var a *atlas.MemoryAtlas
	if imp.cache != nil {
		a, err = imp.cache.Get(abs, load)
	} else {
		a, err = load()
	}
	if err != nil {
		imp.log.WithError(err).WithField("path", path).Error("load atlas")
		return nil, &CorruptAtlasError{Path: path, Err: err}
	}
	return a, nil
}
