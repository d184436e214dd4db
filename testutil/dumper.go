package testutil

import (
	"context"
	"fmt"
	"io"
)

// Dumper writes Docs[collection] lines for each collection, or fails for
// the collection named in FailOn.
type Dumper struct {
	Docs   map[string][]string
	FailOn string
}

func (d *Dumper) Dump(_ context.Context, collection string, w io.Writer) (int64, error) {
	if collection == d.FailOn {
		return 0, fmt.Errorf("cursor for %s closed", collection)
	}
	var n int64
	for _, line := range d.Docs[collection] {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
