package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"zerodlna/internal/didl"
	"zerodlna/internal/index"
)

// handleMedia serves GET/HEAD /media/{id}/... with range support, entirely
// via http.ServeContent (spec.md §4.3 "Ranged streaming"), the same
// facility the teacher uses for SCPD and icon bytes.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	objID := index.ObjectID(id)

	path, err := s.idx.Lookup(objID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !s.underRoot(path) {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	mimeType, ok := index.MimeTypeByName(fi.Name())
	if !ok {
		http.NotFound(w, r)
		return
	}

	transferMode := r.Header.Get("transferMode.dlna.org")
	if transferMode != "Interactive" && transferMode != "Background" {
		transferMode = "Streaming"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("transferMode.dlna.org", transferMode)
	w.Header().Set("contentFeatures.dlna.org", didl.ContentFeatures())

	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// underRoot reports whether path, after resolving symlinks, still lies
// under the served root (spec.md §4.3 "Path safety" / §8 "Symlink
// escape" scenario). A path that fails to resolve (e.g. dangling
// symlink) is treated as unsafe.
func (s *Server) underRoot(path string) bool {
	root, err := filepath.EvalSymlinks(s.idx.Root())
	if err != nil {
		root = s.idx.Root()
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, real)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
