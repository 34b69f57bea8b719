package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/atlasreader/pkg/search"
	"github.com/beetlebugorg/atlasreader/pkg/spatial"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <atlas>...",
		Short: "Print the metadata, sizes and bounds of atlas files",
		Long: `Print the metadata, sizes and bounds of atlas files.

Several files are merged into one layer. Globs such as data/**/*.atlas.gz
are expanded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), cmd, opts, args)
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			a := s.layer.Atlas()
			ds := s.layer.DataSet()
			fmt.Fprintf(w, "layer: %s\n", s.layer.Name())
			for _, line := range s.coord.MetaData() {
				fmt.Fprintln(w, line)
			}
			fmt.Fprintf(w, "nodes: %d\npoints: %d\nedges: %d\nlines: %d\nareas: %d\nrelations: %d\n",
				len(a.Nodes()), len(a.Points()), len(a.Edges()), len(a.Lines()), len(a.Areas()), len(a.Relations()))
			fmt.Fprintf(w, "primitives: %d (nodes %d, ways %d, relations %d)\n",
				ds.Len(), len(ds.Nodes()), len(ds.Ways()), len(ds.Relations()))
			b := s.layer.Bounds()
			fmt.Fprintf(w, "bounds: %s\n", formatBox(b))
			if s.cache != nil {
				st := s.cache.Stats()
				fmt.Fprintf(w, "cache: %d atlases, %d/%d bytes, %d hits, %d misses\n",
					st.Atlases, st.UsedMemory, st.MaxMemory, st.Hits, st.Misses)
			}
			return nil
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var modeName string
	cmd := &cobra.Command{
		Use:   "search <atlas>... <query>",
		Short: "Run an atlas panel query",
		Long: `Run an atlas panel query and print the result list.

Modes:
  Tag       key, value, key=value, combined with " AND "
  OSM ID    substring of "node 12", "way 7", ...
  Atlas ID  exact atlas identifier
  Box       minlat,minlon,maxlat,maxlon
  All       every tagged primitive`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := search.ModeForName(modeName)
			if err != nil {
				return fmt.Errorf("%w (want one of %s)", err, modeNames())
			}
			query := args[len(args)-1]

			s, err := open(cmd.Context(), cmd, opts, args[:len(args)-1])
			if err != nil {
				return err
			}
			defer s.Close()

			s.coord.Submit(mode, query)
			s.panel.printList()
			return nil
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", search.Tag.Name(), "query mode: "+modeNames())
	return cmd
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "resolve <atlas>...",
		Short: "List the items under a map click, nearest first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), cmd, opts, args)
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			click := orb.Point{lon, lat}
			items, err := spatial.NewResolver(s.layer.Atlas(), s.cfg.SpatialOptions()).Resolve(click)
			if err != nil {
				return err
			}
			for i, item := range items {
				fmt.Fprintf(w, "%d. %s %d %.2f m\n", i+1, item.Item.Type(), item.Item.Identifier(), item.Distance)
			}
			if len(items) == 0 {
				fmt.Fprintln(w, "nothing within click radius")
				return nil
			}

			// replay the click on the map to show the tags of the nearest item
			s.mapView.ZoomTo(geo.NewBoundAroundPoint(click, s.cfg.Resolver.ClickRadius))
			x, y := s.mapView.Pixel(click)
			s.mapView.Click(x, y)
			fmt.Fprintln(w)
			s.panel.printTags()
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "click latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "click longitude")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	return cmd
}

func newSelectCmd(opts *rootOptions) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "select <atlas>...",
		Short: "Print the tag table of the primitive with an atlas identifier",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), cmd, opts, args)
			if err != nil {
				return err
			}
			defer s.Close()

			s.coord.Submit(search.AtlasIdentifier, strconv.FormatInt(id, 10))
			if s.coord.List().Len() == 0 {
				return fmt.Errorf("no primitive with atlas identifier %d", id)
			}
			s.coord.ListClicked(0)
			s.panel.printTags()
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "atlas identifier")
	cmd.MarkFlagRequired("id")
	return cmd
}

func modeNames() string {
	names := make([]string, 0, len(search.Modes()))
	for _, m := range search.Modes() {
		names = append(names, strconv.Quote(m.Name()))
	}
	return strings.Join(names, ", ")
}

func formatBox(b orb.Bound) string {
	return fmt.Sprintf("%s,%s,%s,%s",
		strconv.FormatFloat(b.Min.Lat(), 'f', -1, 64),
		strconv.FormatFloat(b.Min.Lon(), 'f', -1, 64),
		strconv.FormatFloat(b.Max.Lat(), 'f', -1, 64),
		strconv.FormatFloat(b.Max.Lon(), 'f', -1, 64))
}
