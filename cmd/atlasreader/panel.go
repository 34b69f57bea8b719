package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/beetlebugorg/atlasreader/pkg/search"
	"github.com/beetlebugorg/atlasreader/pkg/view"
)

// textPanel records what the coordinator shows and prints it on demand.
type textPanel struct {
	w        io.Writer
	list     *search.List
	selected int
	tags     []view.TagRow
}

func newTextPanel(w io.Writer) *textPanel {
	return &textPanel{w: w, selected: -1}
}

func (p *textPanel) ShowList(l *search.List) {
	p.list = l
	p.selected = -1
}

func (p *textPanel) SelectIndex(i int)           { p.selected = i }
func (p *textPanel) ShowTags(rows []view.TagRow) { p.tags = rows }

func (p *textPanel) printList() {
	for _, e := range p.list.Entries() {
		marker := " "
		if e.Index == p.selected {
			marker = ">"
		}
		fmt.Fprintf(p.w, "%s %s\n", marker, e)
	}
	fmt.Fprintf(p.w, "%d results\n", p.list.Len())
}

func (p *textPanel) printTags() {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, row := range p.tags {
		fmt.Fprintf(tw, "%s\t%s\n", row.Key, row.Value)
	}
	tw.Flush()
}
