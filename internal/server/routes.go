package server

import (
	"net/http"

	"zerodlna/internal/scpd"
)

// newMux builds the table-driven router spec.md §9 calls for: method+path
// pattern to handler, using Go's http.ServeMux method/wildcard routing
// (go.mod targets go 1.25) rather than the teacher's closure-per-route
// http.ServeMux.HandleFunc calls without method matching.
func (s *Server) newMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /description.xml", s.handleRootDesc)
	mux.HandleFunc("GET /ContentDirectory.xml", serveSCPD(scpd.ContentDirectory))
	mux.HandleFunc("GET /ConnectionManager.xml", serveSCPD(scpd.ConnectionManager))
	mux.HandleFunc("POST "+contentDirectoryControlURL, soapHandler(s.contentDirectory))
	mux.HandleFunc("POST "+connectionManagerControlURL, soapHandler(s.connectionManager))
	// The title segment is cosmetic (spec.md §4.3); ServeMux treats a
	// trailing wildcard as required, not optional, so the bare-ID form needs
	// its own registration pointing at the same handler.
	mux.HandleFunc("GET /media/{id}", s.handleMedia)
	mux.HandleFunc("HEAD /media/{id}", s.handleMedia)
	mux.HandleFunc("GET /media/{id}/{title...}", s.handleMedia)
	mux.HandleFunc("HEAD /media/{id}/{title...}", s.handleMedia)
	mux.HandleFunc("GET /browse", s.handleBrowse)

	return mux
}

func (s *Server) handleRootDesc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Write(s.rootDescXML)
}

func serveSCPD(doc string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.Write([]byte(doc))
	}
}
