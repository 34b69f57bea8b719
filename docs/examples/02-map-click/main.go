package main

import (
	"context"
	"fmt"
	"log"

	"github.com/paulmach/orb"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/spatial"
)

func main() {
	a, err := atlas.LoadFile(context.Background(), "DMA_8-123-45.atlas.gz")
	if err != nil {
		log.Fatal(err)
	}

	// Click near Roseau harbor
	click := orb.Point{-61.3881, 15.3009}

	// Items within 200 m, nodes and points first when closer than 2 m
	resolver := spatial.NewResolver(a, spatial.DefaultOptions())
	items, err := resolver.Resolve(click)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Candidates: %d\n", len(items))
	for _, item := range items {
		fmt.Printf("  %s %d: %.1f m\n",
			item.Item.Type(),
			item.Item.Identifier(),
			item.Distance)
	}
}
