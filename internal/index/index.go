// Package index implements the Content Index (spec.md §4.1): the bijection
// between integer ObjectIDs and filesystem paths under a served root, and
// classification/listing of containers.
package index

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"zerodlna/internal/upnpav"

	"github.com/anacrolix/generics"
	"github.com/anacrolix/log"
	"golang.org/x/exp/slices"
)

// ObjectID identifies a browsable entity. 0 is the served root (spec.md §3).
type ObjectID int64

const RootID ObjectID = 0

// Kind distinguishes containers from items.
type Kind int

const (
	KindContainer Kind = iota
	KindItem
)

var (
	// ErrNotFound means the id was never assigned.
	ErrNotFound = errors.New("object not found")
	// ErrGone means the id was assigned but its path no longer resolves
	// (spec.md §3 "disappeared children retain their IDs but resolve to
	// 'gone'").
	ErrGone = errors.New("object gone")
	// ErrNotContainer means List was called on an item.
	ErrNotContainer = errors.New("object is not a container")
)

// ContentObject is the unit traded between the Index and the DIDL-Lite
// encoder (spec.md §3).
type ContentObject struct {
	ID       ObjectID
	ParentID ObjectID
	Kind     Kind
	Title    string

	// Item fields.
	MimeType  string
	UPnPClass string
	Size      int64
	ModTime   time.Time
	Duration  generics.Option[time.Duration]

	// Container fields.
	ChildCount int
}

// Index is the Content Index. The zero value is not usable; use New.
type Index struct {
	root   string
	logger log.Logger
	probe  *prober

	mu     sync.RWMutex
	byID   map[ObjectID]string
	byPath map[string]ObjectID
	gone   map[ObjectID]bool
	nextID ObjectID

	// children caches, per parent, the set of child IDs as of the last
	// List call, so repeated listings can detect additions/removals and
	// bump updateID only when something actually changed (spec.md §4.2).
	children map[ObjectID]map[ObjectID]bool

	updateID uint64
}

// Option configures an Index at construction.
type Option func(*Index)

// WithProbing enables ffprobe-backed duration lookups for media items.
func WithProbing(enabled bool) Option {
	return func(idx *Index) {
		if enabled {
			idx.probe = newProber(idx.logger)
		} else {
			idx.probe = nil
		}
	}
}

// New builds a Content Index rooted at root, which must be an absolute,
// existing directory (the caller, config.Config.Normalize, validates this).
func New(root string, logger log.Logger, opts ...Option) *Index {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	abs = filepath.Clean(abs)
	idx := &Index{
		root:     abs,
		logger:   logger,
		byID:     map[ObjectID]string{RootID: abs},
		byPath:   map[string]ObjectID{abs: RootID},
		gone:     map[ObjectID]bool{},
		children: map[ObjectID]map[ObjectID]bool{},
		nextID:   RootID + 1,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Root returns the served root path.
func (idx *Index) Root() string { return idx.root }

// UpdateID returns the current ContentDirectory SystemUpdateID value
// (spec.md §4.2, Open Question (a)).
func (idx *Index) UpdateID() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.updateID
}

// Lookup resolves an ObjectID to a filesystem path (spec.md §4.1).
func (idx *Index) Lookup(id ObjectID) (string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.gone[id] {
		return "", ErrGone
	}
	p, ok := idx.byID[id]
	if !ok {
		return "", ErrNotFound
	}
	return p, nil
}

// ParentOf returns the parent ObjectID of id, if known. The root has no
// parent and returns ok=false; Classify records that as ParentID -1, which
// the DIDL-Lite encoder emits as parentID="-1" per spec.md §4.2.
func (idx *Index) ParentOf(id ObjectID) (ObjectID, bool) {
	if id == RootID {
		return 0, false
	}
	path, err := idx.Lookup(id)
	if err != nil {
		return 0, false
	}
	parentPath := filepath.Dir(path)
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	pid, ok := idx.byPath[parentPath]
	return pid, ok
}

// Classify resolves id to a full ContentObject, stat-ing the filesystem.
// Used for BrowseMetadata (spec.md §4.2).
func (idx *Index) Classify(id ObjectID) (ContentObject, error) {
	path, err := idx.Lookup(id)
	if err != nil {
		return ContentObject{}, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		idx.markGone(id)
		return ContentObject{}, ErrGone
	}
	parentID, hasParent := idx.ParentOf(id)
	if !hasParent {
		parentID = -1
	}
	if fi.IsDir() {
		return ContentObject{
			ID:         id,
			ParentID:   parentID,
			Kind:       KindContainer,
			Title:      fi.Name(),
			ChildCount: idx.countVisibleChildren(path),
		}, nil
	}
	entry, ok := classifyExtension(fi.Name())
	if !ok {
		return ContentObject{}, ErrNotFound
	}
	obj := ContentObject{
		ID:        id,
		ParentID:  parentID,
		Kind:      KindItem,
		Title:     fi.Name(),
		MimeType:  entry.MimeType,
		UPnPClass: entry.Class,
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
	}
	if entry.Mediaish && idx.probe != nil {
		obj.Duration = idx.probe.Duration(path, fi.ModTime())
	}
	return obj, nil
}

// List returns a window of id's children (spec.md §4.1). offset/limit
// follow the Browse contract: limit<=0 means "all".
func (idx *Index) List(id ObjectID, offset, limit int) ([]ContentObject, int, error) {
	parentPath, err := idx.Lookup(id)
	if err != nil {
		return nil, 0, err
	}
	fi, err := os.Stat(parentPath)
	if err != nil {
		idx.markGone(id)
		return nil, 0, ErrGone
	}
	if !fi.IsDir() {
		return nil, 0, ErrNotContainer
	}
	entries, err := os.ReadDir(parentPath)
	if err != nil {
		return nil, 0, err
	}

	objs := idx.assignAndClassify(id, parentPath, entries)

	slices.SortFunc(objs, func(a, b ContentObject) int {
		if a.Kind != b.Kind {
			if a.Kind == KindContainer {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})

	total := len(objs)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return objs[offset:end], total, nil
}

// assignAndClassify allocates fresh IDs for newly-observed children,
// classifies every visible entry, marks vanished former children "gone",
// and bumps the global UpdateID if the child set changed. ID assignment is
// serialized under idx.mu (spec.md §4.1 "single-writer").
func (idx *Index) assignAndClassify(parentID ObjectID, parentPath string, entries []os.DirEntry) []ContentObject {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	seen := map[ObjectID]bool{}
	objs := make([]ContentObject, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue // hidden, spec.md §3
		}
		isDir := entry.IsDir()
		if !isDir {
			if _, ok := classifyExtension(name); !ok {
				continue // unknown extension, spec.md §3
			}
		}
		childPath := filepath.Join(parentPath, name)
		childID, existed := idx.byPath[childPath]
		if !existed {
			childID = idx.nextID
			idx.nextID++
			idx.byPath[childPath] = childID
			idx.byID[childID] = childPath
		}
		delete(idx.gone, childID)
		seen[childID] = true

		obj, ok := idx.classifyEntryLocked(childID, parentID, childPath, entry, isDir)
		if ok {
			objs = append(objs, obj)
		}
	}

	prev := idx.children[parentID]
	changed := len(prev) != len(seen)
	if !changed {
		for cid := range seen {
			if !prev[cid] {
				changed = true
				break
			}
		}
	}
	for cid := range prev {
		if !seen[cid] {
			idx.gone[cid] = true
			changed = true
		}
	}
	idx.children[parentID] = seen
	if changed {
		idx.updateID++
	}

	return objs
}

// classifyEntryLocked must be called with idx.mu held.
func (idx *Index) classifyEntryLocked(id, parentID ObjectID, path string, entry os.DirEntry, isDir bool) (ContentObject, bool) {
	if isDir {
		return ContentObject{
			ID:         id,
			ParentID:   parentID,
			Kind:       KindContainer,
			Title:      entry.Name(),
			ChildCount: idx.countVisibleChildren(path),
		}, true
	}
	mimeEntry, ok := classifyExtension(entry.Name())
	if !ok {
		return ContentObject{}, false
	}
	fi, err := entry.Info()
	if err != nil {
		return ContentObject{}, false
	}
	obj := ContentObject{
		ID:        id,
		ParentID:  parentID,
		Kind:      KindItem,
		Title:     entry.Name(),
		MimeType:  mimeEntry.MimeType,
		UPnPClass: mimeEntry.Class,
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
	}
	if mimeEntry.Mediaish && idx.probe != nil {
		obj.Duration = idx.probe.Duration(path, fi.ModTime())
	}
	return obj, true
}

func (idx *Index) countVisibleChildren(path string) int {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			n++
			continue
		}
		if _, ok := classifyExtension(name); ok {
			n++
		}
	}
	return n
}

func (idx *Index) markGone(id ObjectID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.gone[id] = true
}

// ClassOf exposes the upnpav class constant for a container, for callers
// that have a ContentObject.Kind but need the literal class string.
func ClassOf(o ContentObject) string {
	if o.Kind == KindContainer {
		return upnpav.ClassContainer
	}
	return o.UPnPClass
}
