package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/nlpipe/nlpipe/registry"
	"github.com/nlpipe/nlpipe/store"
)

const errorMIME = "application/prs.error+text"

// Server is the REST facade over a Store and a Registry. It is stateless
// beyond those two references and implements http.Handler directly.
type Server struct {
	Store    *store.Store
	Registry *registry.Registry

	// UseAuth gates every /api/* and /checktoken route behind bearer token
	// verification. Disabled deployments (local dev, trusted networks) set
	// this to false at construction.
	UseAuth bool

	mux     *http.ServeMux
	handler http.Handler
}

// New wires routes against store and reg.
func New(s *store.Store, reg *registry.Registry, useAuth bool) *Server {
	srv := &Server{Store: s, Registry: reg, UseAuth: useAuth}
	srv.mux = http.NewServeMux()
	srv.mux.HandleFunc("/", srv.index)
	srv.mux.HandleFunc("/checktoken", srv.withAuth(srv.checkToken))
	srv.mux.HandleFunc("/api/modules/", srv.withAuth(srv.dispatchModules))
	srv.handler = withLogging(srv.mux)
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// dispatchModules parses everything under /api/modules/ by hand: the
// teacher's codebase never reaches for a routing library, and this surface
// is small enough that explicit parsing stays readable.
func (s *Server) dispatchModules(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/modules/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}
	module := segments[0]
	tail := segments[1:]

	switch {
	case len(tail) == 0:
		switch r.Method {
		case http.MethodPost:
			s.postTask(w, r, module)
		case http.MethodGet:
			s.getTask(w, r, module)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case len(tail) == 1 && tail[0] == "bulk":
		http.NotFound(w, r)
	case len(tail) == 2 && tail[0] == "bulk":
		s.dispatchBulk(w, r, module, tail[1])
	case len(tail) == 1:
		id := tail[0]
		switch r.Method {
		case http.MethodHead:
			s.taskStatus(w, r, module, id)
		case http.MethodGet:
			s.result(w, r, module, id)
		case http.MethodPut:
			s.putResult(w, r, module, id)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) dispatchBulk(w http.ResponseWriter, r *http.Request, module, action string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch action {
	case "status":
		s.bulkStatus(w, r, module)
	case "result":
		s.bulkResult(w, r, module)
	case "process":
		s.bulkProcess(w, r, module)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) checkModule(w http.ResponseWriter, module string) bool {
	if s.Registry.Has(module) {
		return true
	}
	http.Error(w, unknownModuleMessage(module, s.Registry.Names()), http.StatusNotFound)
	return false
}

func unknownModuleMessage(module string, known []string) string {
	return "Error: unknown module " + module + "; known modules: " + strings.Join(known, ", ") + "\n"
}

func (s *Server) postTask(w http.ResponseWriter, r *http.Request, module string) {
	if !s.checkModule(w, module) {
		return
	}
	doc, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "error reading body", http.StatusBadRequest)
		return
	}
	query := r.URL.Query()
	id, err := s.Store.Enqueue(module, doc, store.EnqueueOptions{
		ID:           query.Get("id"),
		ResetError:   parseBoolParam(query.Get("reset_error")),
		ResetPending: parseBoolParam(query.Get("reset_pending")),
	})
	if err != nil {
		log.WithError(err).WithField("module", module).Error("postTask: enqueue failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Location", "/api/modules/"+module+"/"+id)
	w.Header().Set("ID", id)
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(id + "\n"))
}

func (s *Server) taskStatus(w http.ResponseWriter, r *http.Request, module, id string) {
	status, err := s.Store.Status(module, id)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"module": module, "id": id}).Error("taskStatus: lookup failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Status", string(status))
	w.WriteHeader(status.StatusCode())
}

func (s *Server) result(w http.ResponseWriter, r *http.Request, module, id string) {
	format := r.URL.Query().Get("format")
	result, err := s.Store.Result(module, id)
	switch {
	case err == nil:
		if format != "" {
			proc, perr := s.Registry.Get(module)
			if perr != nil {
				http.Error(w, perr.Error(), http.StatusNotFound)
				return
			}
			converted, cerr := proc.Convert(id, result, format)
			if cerr != nil {
				writeJSONError(w, http.StatusInternalServerError, "ConversionError", cerr.Error())
				return
			}
			result = converted
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result)
	case isProcessingErr(err):
		writeJSONError(w, http.StatusInternalServerError, "ProcessingError", err.Error())
	case err == store.ErrNotReady:
		status, _ := s.Store.Status(module, id)
		w.Header().Set("Status", string(status))
		w.WriteHeader(status.StatusCode())
	default:
		log.WithError(err).WithFields(log.Fields{"module": module, "id": id}).Error("result: lookup failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func isProcessingErr(err error) bool {
	var perr *store.ProcessingErr
	return errors.As(err, &perr)
}

func writeJSONError(w http.ResponseWriter, code int, class, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(struct {
		ExceptionClass string `json:"exception_class"`
		Message        string `json:"message"`
	}{ExceptionClass: class, Message: message})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, module string) {
	if !s.checkModule(w, module) {
		return
	}
	id, doc, err := s.Store.Claim(module)
	if err != nil {
		log.WithError(err).WithField("module", module).Error("getTask: claim failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if id == "" {
		http.Error(w, "Queue "+module+" empty!\n", http.StatusNotFound)
		return
	}
	w.Header().Set("Location", "/api/modules/"+module+"/"+id)
	w.Header().Set("ID", id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) putResult(w http.ResponseWriter, r *http.Request, module, id string) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "error reading body", http.StatusBadRequest)
		return
	}
	if r.Header.Get("Content-Type") == errorMIME {
		err = s.Store.StoreError(module, id, payload)
	} else {
		err = s.Store.StoreResult(module, id, payload)
	}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"module": module, "id": id}).Error("putResult: store failed")
		if errors.Is(err, store.ErrInvalidState) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bulkStatus(w http.ResponseWriter, r *http.Request, module string) {
	ids, ok := decodeIDList(w, r)
	if !ok {
		return
	}
	statuses, err := s.Store.BulkStatus(module, ids)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, statuses)
}

func (s *Server) bulkResult(w http.ResponseWriter, r *http.Request, module string) {
	ids, ok := decodeIDList(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	results, err := s.Store.BulkResult(module, ids)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if format != "" {
		proc, perr := s.Registry.Get(module)
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusNotFound)
			return
		}
		for id, raw := range results {
			converted, cerr := proc.Convert(id, raw, format)
			if cerr != nil {
				http.Error(w, cerr.Error(), http.StatusInternalServerError)
				return
			}
			results[id] = converted
		}
	}
	out := make(map[string]string, len(results))
	for id, raw := range results {
		out[id] = string(raw)
	}
	writeJSON(w, out)
}

func decodeIDList(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var ids []string
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil || len(ids) == 0 {
		http.Error(w, "Error: Please provide bulk IDs as a json list\n", http.StatusBadRequest)
		return nil, false
	}
	return ids, true
}

func (s *Server) bulkProcess(w http.ResponseWriter, r *http.Request, module string) {
	if !s.checkModule(w, module) {
		return
	}
	resetError := parseBoolParam(r.URL.Query().Get("reset_error"))
	resetPending := parseBoolParam(r.URL.Query().Get("reset_pending"))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "error reading body", http.StatusBadRequest)
		return
	}

	var asList []string
	var asMap map[string]string
	var items []store.BulkEnqueueItem
	switch {
	case json.Unmarshal(body, &asList) == nil:
		items = make([]store.BulkEnqueueItem, len(asList))
		for i, doc := range asList {
			items[i] = store.BulkEnqueueItem{Doc: []byte(doc)}
		}
	case json.Unmarshal(body, &asMap) == nil:
		items = make([]store.BulkEnqueueItem, 0, len(asMap))
		for id, doc := range asMap {
			items = append(items, store.BulkEnqueueItem{ID: id, Doc: []byte(doc)})
		}
	default:
		http.Error(w, "Error: Please provide bulk docs as a json list or {id:doc} dict\n", http.StatusBadRequest)
		return
	}

	ids, err := s.Store.BulkEnqueue(module, items, resetError, resetPending)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ids)
}

func parseBoolParam(v string) bool {
	switch v {
	case "1", "Y", "true", "True":
		return true
	default:
		b, _ := strconv.ParseBool(v)
		return b
	}
}

func (s *Server) checkToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := "disabled"
	if s.UseAuth {
		status = "OK"
	}
	_, _ = w.Write([]byte("Authentication " + status + "\n"))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
