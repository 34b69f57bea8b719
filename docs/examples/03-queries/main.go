package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/data"
	"github.com/beetlebugorg/atlasreader/pkg/search"
)

func main() {
	a, err := atlas.LoadFile(context.Background(), "DMA_8-123-45.atlas.gz")
	if err != nil {
		log.Fatal(err)
	}
	engine := search.NewEngine(a, data.NewBuilder().Build(a, nil))

	queries := []struct {
		mode search.Mode
		text string
	}{
		{search.Tag, "amenity=cafe"},
		{search.Tag, "highway AND oneway=yes"},
		{search.OSMIdentifier, "way 1234"},
		{search.Box, "15.29,-61.40,15.31,-61.38"},
	}

	for _, q := range queries {
		results := engine.Search(q.mode, q.text)
		fmt.Printf("%s %q: %d results\n", q.mode, q.text, results.Len())

		// Each row maps back to its primitive identifier
		index := engine.Index()
		for _, entry := range results.Entries() {
			id, _ := index.ID(entry.Index)
			fmt.Printf("  %d -> %s\n", entry.Index, id)
		}
	}
}
