package indexer

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/dredger/pkg/dredge"
)

// Indexer maintains in-memory indexes over analysed documents using Roaring
// bitmaps. It is safe for concurrent use; returned bitmaps are copies.
type Indexer struct {
	mu sync.RWMutex

	// ID mappings
	idToDoc   map[string]uint32
	docToMeta []*DocMeta
	nextDocID uint32

	// Inverted indexes
	idxPath map[string]*roaring.Bitmap // element path
	idxType map[string]*roaring.Bitmap // key format: "path:type", attributes only
	idxFile map[string]*roaring.Bitmap
}

// New creates a new Indexer instance.
func New() *Indexer {
	return &Indexer{
		idToDoc:   make(map[string]uint32),
		docToMeta: make([]*DocMeta, 0, 1024),
		idxPath:   make(map[string]*roaring.Bitmap),
		idxType:   make(map[string]*roaring.Bitmap),
		idxFile:   make(map[string]*roaring.Bitmap),
	}
}

// Index adds the document at position in file, described by its schema
// forest. Returns the assigned document ID. Indexing the same document twice
// returns the first ID.
func (idx *Indexer) Index(file string, position int, forest []dredge.Element) uint32 {
	key := DocKey(file, position)
	paths := ElementPaths(forest)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Check if already indexed
	if docID, exists := idx.idToDoc[key]; exists {
		return docID
	}

	docID := idx.nextDocID
	idx.nextDocID++

	distinct := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		distinct[p.Path] = struct{}{}
		addToBitmap(idx.idxPath, p.Path, docID)
		if p.DataType != "" {
			addToBitmap(idx.idxType, typeKey(p.Path, p.DataType), docID)
		}
	}
	addToBitmap(idx.idxFile, file, docID)

	idx.idToDoc[key] = docID
	idx.docToMeta = append(idx.docToMeta, &DocMeta{
		DocID:    docID,
		Key:      key,
		File:     file,
		Position: position,
		Paths:    len(distinct),
	})

	return docID
}

// GetMeta retrieves metadata by docID.
func (idx *Indexer) GetMeta(docID uint32) *DocMeta {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if int(docID) >= len(idx.docToMeta) {
		return nil
	}
	return idx.docToMeta[docID]
}

// GetMetaByKey retrieves metadata by document key.
func (idx *Indexer) GetMetaByKey(key string) *DocMeta {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docID, exists := idx.idToDoc[key]
	if !exists {
		return nil
	}
	return idx.docToMeta[docID]
}

// Metas returns the metadata of every document in bm, in ID order.
func (idx *Indexer) Metas(bm *roaring.Bitmap) []*DocMeta {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*DocMeta, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		docID := it.Next()
		if int(docID) < len(idx.docToMeta) {
			out = append(out, idx.docToMeta[docID])
		}
	}
	return out
}

// AllDocIDs returns a bitmap of all indexed document IDs.
func (idx *Indexer) AllDocIDs() *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bm := roaring.New()
	bm.AddRange(0, uint64(idx.nextDocID))
	return bm
}

// DocCount returns the number of indexed documents.
func (idx *Indexer) DocCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docToMeta)
}

// Present returns the documents containing the element at path.
func (idx *Indexer) Present(path string) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return cloneOrEmpty(idx.idxPath[path])
}

// Missing returns the documents that do not contain the element at path.
func (idx *Indexer) Missing(path string) *roaring.Bitmap {
	all := idx.AllDocIDs()
	all.AndNot(idx.Present(path))
	return all
}

// WithType returns the documents in which the attribute at path has the
// given data type. Useful to find the documents behind a variant.
func (idx *Indexer) WithType(path string, dataType dredge.DataType) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return cloneOrEmpty(idx.idxType[typeKey(path, dataType)])
}

// TypesOf returns the data types observed for the attribute at path, with
// the number of documents for each.
func (idx *Indexer) TypesOf(path string) map[dredge.DataType]uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make(map[dredge.DataType]uint64)
	for _, dt := range []dredge.DataType{
		dredge.TypeNumber, dredge.TypeString, dredge.TypeBoolean,
		dredge.TypeDate, dredge.TypeNull, dredge.TypeVariant,
	} {
		if bm, ok := idx.idxType[typeKey(path, dt)]; ok {
			out[dt] = bm.GetCardinality()
		}
	}
	return out
}

// InFile returns the documents read from file.
func (idx *Indexer) InFile(file string) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return cloneOrEmpty(idx.idxFile[file])
}

// Paths returns every indexed element path in sorted order.
func (idx *Indexer) Paths() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]string, 0, len(idx.idxPath))
	for p := range idx.idxPath {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func typeKey(path string, dataType dredge.DataType) string {
	return path + ":" + string(dataType)
}

// addToBitmap adds a docID to a string-keyed bitmap index.
func addToBitmap(index map[string]*roaring.Bitmap, key string, docID uint32) {
	bm, exists := index[key]
	if !exists {
		bm = roaring.New()
		index[key] = bm
	}
	bm.Add(docID)
}

func cloneOrEmpty(bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		return roaring.New()
	}
	return bm.Clone()
}
