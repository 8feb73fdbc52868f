// Package indexer maintains an inverted index from schema element paths to
// the documents that contain them.
package indexer

import (
	"fmt"
)

// DocMeta describes one indexed document. A file holding several YAML
// documents, or a selector yielding several records, produces one DocMeta
// per document.
type DocMeta struct {
	DocID    uint32
	Key      string // file#position
	File     string
	Position int // index of the document within its file
	Paths    int // number of distinct element paths
}

// DocKey returns the key identifying the document at position in file.
func DocKey(file string, position int) string {
	return fmt.Sprintf("%s#%d", file, position)
}
