package server

import (
	"html/template"
	"net/http"
	"strconv"

	"zerodlna/internal/index"
)

// browseTmpl renders the optional human-readable listing at GET /browse
// (spec.md §4.3), generalized from the teacher's rootTmpl to walk the
// Content Index instead of the filesystem directly.
var browseTmpl = template.Must(template.New("browse").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Total}} item(s)</p>
<ul>
{{if .HasParent}}<li><a href="/browse?id={{.ParentID}}">..</a></li>{{end}}
{{range .Rows}}<li>{{if .IsContainer}}<a href="/browse?id={{.ID}}">{{.Title}}/</a>{{else}}<a href="/media/{{.ID}}/{{.Title}}">{{.Title}}</a>{{end}}</li>
{{end}}
</ul>
</body></html>
`))

type browseRow struct {
	ID          int64
	Title       string
	IsContainer bool
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	id := index.RootID
	if v := r.URL.Query().Get("id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			id = index.ObjectID(n)
		}
	}
	children, total, err := s.idx.List(id, 0, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	rows := make([]browseRow, 0, len(children))
	for _, c := range children {
		rows = append(rows, browseRow{ID: int64(c.ID), Title: c.Title, IsContainer: c.Kind == index.KindContainer})
	}
	parentID, hasParent := s.idx.ParentOf(id)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	browseTmpl.Execute(w, struct {
		Title     string
		Total     int
		Rows      []browseRow
		HasParent bool
		ParentID  int64
	}{
		Title:     s.identity.FriendlyName,
		Total:     total,
		Rows:      rows,
		HasParent: hasParent,
		ParentID:  int64(parentID),
	})
}
