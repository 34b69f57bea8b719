// Package main provides the atlasreader CLI, a headless rendition of the
// atlas panel.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/atlasreader/internal/config"
	"github.com/beetlebugorg/atlasreader/internal/logging"
	"github.com/beetlebugorg/atlasreader/pkg/host"
	"github.com/beetlebugorg/atlasreader/pkg/importer"
	"github.com/beetlebugorg/atlasreader/pkg/view"
)

// Version is the current atlasreader version.
var Version = "0.1.0"

// mapSize is the pixel size of the headless map view.
const mapSize = 1000

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	cacheBytes int64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "atlasreader",
		Short:        "Inspect Atlas files from the command line",
		Long:         `atlasreader loads .atlas and .atlas.gz files, converts them into read-only primitives and runs the atlas panel queries against them.`,
		Version:      Version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the environment")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides the configuration)")
	cmd.PersistentFlags().Int64Var(&opts.cacheBytes, "cache", 0, "cache loaded atlases up to this many bytes, 0 disables (overrides the configuration)")

	cmd.AddCommand(
		newInfoCmd(opts),
		newSearchCmd(opts),
		newResolveCmd(opts),
		newSelectCmd(opts),
	)
	return cmd
}

// session is a loaded layer with its coordinator.
type session struct {
	cfg     config.Config
	log     *logrus.Entry
	layer   *view.Layer
	mapView *host.MemoryMapView
	panel   *textPanel
	coord   *view.Coordinator
	cache   *importer.Cache // nil when caching is disabled
}

func (s *session) Close() {
	s.layer.Destroy()
}

// open loads the atlas files matched by patterns.
func open(ctx context.Context, cmd *cobra.Command, opts *rootOptions, patterns []string) (*session, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if cmd.Flags().Changed("cache") {
		cfg.Import.CacheBytes = opts.cacheBytes
	}
	log, err := logging.Setup(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return nil, err
	}

	paths, err := importer.Expand(patterns...)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w matching %v", importer.ErrNoFiles, patterns)
	}

	mapView := host.NewMemoryMapView(mapSize, mapSize, orb.Bound{})
	progress := host.ProgressFunc(func(text string) { log.Debug(text) })

	imp := importer.New(cfg.ImporterOptions()).WithLogger(log.WithField("component", "importer"))
	var cache *importer.Cache
	if cfg.Import.CacheBytes > 0 {
		cache = importer.NewCache(cfg.Import.CacheBytes)
		imp.WithCache(cache)
	}
	layer, errs := imp.Import(ctx, paths, mapView, progress)
	if layer == nil {
		return nil, errors.Join(errs...)
	}
	for _, err := range errs {
		log.WithError(err).Warn("skipped atlas file")
	}

	panel := newTextPanel(cmd.OutOrStdout())
	coord := view.NewCoordinator(layer, mapView, panel, cfg.SpatialOptions()).
		WithLogger(log.WithField("component", "coordinator"))
	return &session{
		cfg:     cfg,
		log:     log,
		layer:   layer,
		mapView: mapView,
		panel:   panel,
		coord:   coord,
		cache:   cache,
	}, nil
}
