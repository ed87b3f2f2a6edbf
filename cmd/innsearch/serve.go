package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fwojciec/innsearch"
)

// codeStatus maps domain error codes to HTTP status codes.
var codeStatus = map[string]int{
	innsearch.ECONFLICT:    http.StatusConflict,
	innsearch.EINVALID:     http.StatusBadRequest,
	innsearch.ENOTFOUND:    http.StatusNotFound,
	innsearch.ETOOLARGE:    http.StatusRequestEntityTooLarge,
	innsearch.EUNAVAILABLE: http.StatusServiceUnavailable,
	innsearch.EINTERNAL:    http.StatusInternalServerError,
}

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	srv := &server{
		inventory: deps.Inventory,
		searcher:  deps.Searcher,
		password:  c.AdminPassword,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", srv.handleSearch)
	mux.HandleFunc("POST /admin/reset", srv.admin(srv.handleReset))
	mux.HandleFunc("POST /admin/update", srv.admin(srv.handleUpdate))
	mux.HandleFunc("POST /admin/patch", srv.admin(srv.handlePatch))

	fmt.Fprintf(deps.Stdout, "listening on %s\n", c.Addr)
	return http.ListenAndServe(c.Addr, mux)
}

// server is the thin HTTP glue over the inventory and search services.
// All semantics live in the core packages; this layer only maps inputs
// and error codes.
type server struct {
	inventory innsearch.InventoryService
	searcher  innsearch.SearchService
	password  string
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.searcher.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}

	// Only chapters with a positive score reach the client.
	matched := make([]*innsearch.ChapterResult, 0, len(results))
	for _, res := range results {
		if res.Score > 0 {
			matched = append(matched, res)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(matched)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.inventory.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := s.inventory.Update(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handlePatch(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, innsearch.Errorf(innsearch.EINVALID, "index must be an integer"))
		return
	}
	if err := s.inventory.PatchChapter(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// admin gates a handler behind the shared admin password.
func (s *server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.password == "" || r.Header.Get("X-Admin-Password") != s.password {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, ok := codeStatus[innsearch.ErrorCode(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	http.Error(w, innsearch.ErrorMessage(err), status)
}
