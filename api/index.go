package api

import (
	"html/template"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/nlpipe/nlpipe/store"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>nlpipe</title></head>
<body>
<h1>nlpipe</h1>
<table border="1">
<tr><th>module</th><th>PENDING</th><th>STARTED</th><th>DONE</th><th>ERROR</th></tr>
{{range .Modules}}
<tr><td>{{.Name}}</td><td>{{.Pending}}</td><td>{{.Started}}</td><td>{{.Done}}</td><td>{{.Error}}</td></tr>
{{end}}
</table>
</body>
</html>
`))

type moduleRow struct {
	Name                          string
	Pending, Started, Done, Error int
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	names := s.Registry.Names()
	rows := make([]moduleRow, 0, len(names))
	for _, name := range names {
		stats, err := s.Store.Statistics(name)
		if err != nil {
			log.WithError(err).WithField("module", name).Error("index: statistics failed")
			continue
		}
		rows = append(rows, moduleRow{
			Name:    name,
			Pending: stats[store.Pending],
			Started: stats[store.Started],
			Done:    stats[store.Done],
			Error:   stats[store.Error],
		})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct{ Modules []moduleRow }{Modules: rows}); err != nil {
		log.WithError(err).Error("index: template execution failed")
	}
}
