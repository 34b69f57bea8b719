package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/data"
)

func main() {
	// Load atlas file
	a, err := atlas.LoadFile(context.Background(), "DMA_8-123-45.atlas.gz")
	if err != nil {
		log.Fatal(err)
	}

	// Print atlas info
	fmt.Printf("Atlas: %s\n", a.Name())
	for _, line := range a.MetaData().Lines() {
		fmt.Println(line)
	}

	// Convert to read-only primitives
	builder := data.NewBuilder()
	ds := builder.Build(a, nil)
	fmt.Printf("Primitives: %d\n", ds.Len())

	bounds, _ := builder.Bounds()
	fmt.Printf("Bounds: [%.4f,%.4f] to [%.4f,%.4f]\n",
		bounds.Min.Lon(), bounds.Min.Lat(),
		bounds.Max.Lon(), bounds.Max.Lat())
}
