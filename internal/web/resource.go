package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"crudkit/pkg/query"
	"crudkit/pkg/repository"
	"crudkit/pkg/service"
)

// Query parameters that are never treated as field filters.
var reservedParams = map[string]bool{"page": true, "size": true, "sort": true, "ids": true}

// Resource serves the generic CRUD operations of one record type.
type Resource[E any] struct {
	svc         *service.Service[E]
	log         *zap.Logger
	maxFileSize int64
}

// NewResource returns the handlers for svc. Uploads larger than maxFileSize
// bytes are rejected.
func NewResource[E any](svc *service.Service[E], log *zap.Logger, maxFileSize int64) *Resource[E] {
	return &Resource[E]{svc: svc, log: log, maxFileSize: maxFileSize}
}

// Routes returns the resource router, meant to be mounted under a prefix.
func (h *Resource[E]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Get("/count", h.handleCount)
	r.Get("/export", h.handleExport)
	r.Post("/", h.handleCreate)
	r.Post("/batch", h.handleBatch)
	r.Post("/import", h.handleImport)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Put("/{id}/enabled", h.handleEnabled(true))
	r.Put("/{id}/disabled", h.handleEnabled(false))
	return r
}

// handleList returns one page of records. Field filters are given as
// query parameters named after the fields, e.g. ?title=release&type=message.
func (h *Resource[E]) handleList(w http.ResponseWriter, r *http.Request) {
	where, err := h.filters(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	params := r.URL.Query()
	page := parseIntParam(params.Get("page"), 1)
	size := parseIntParam(params.Get("size"), query.DefaultPageSize)
	sort := query.ParseSort(params.Get("sort"))

	result, err := h.svc.QueryPage(r.Context(), page, size, where, sort)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, result)
}

func (h *Resource[E]) handleCount(w http.ResponseWriter, r *http.Request) {
	where, err := h.filters(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	n, err := h.svc.CountWhere(r.Context(), where)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]int64{"count": n})
}

func (h *Resource[E]) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.svc.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if e == nil {
		respondError(w, r, h.log, h.notFound(id))
		return
	}
	writeJSON(w, h.log, http.StatusOK, e)
}

func (h *Resource[E]) handleCreate(w http.ResponseWriter, r *http.Request) {
	e := h.svc.Table().New()
	if err := decodeBody(r, e); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	saved, err := h.svc.Save(r.Context(), e)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, saved)
}

func (h *Resource[E]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	partial := h.svc.Table().New()
	if err := decodeBody(r, partial); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	updated, err := h.svc.Update(r.Context(), id, partial)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if updated == nil {
		respondError(w, r, h.log, h.notFound(id))
		return
	}
	writeJSON(w, h.log, http.StatusOK, updated)
}

func (h *Resource[E]) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Resource[E]) handleEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		set := h.svc.Disabled
		if enabled {
			set = h.svc.Enabled
		}
		n, err := set(r.Context(), id)
		if err != nil {
			respondError(w, r, h.log, err)
			return
		}
		if n == 0 {
			respondError(w, r, h.log, h.notFound(id))
			return
		}
		writeJSON(w, h.log, http.StatusOK, map[string]any{"id": id, "enabled": enabled})
	}
}

func (h *Resource[E]) handleBatch(w http.ResponseWriter, r *http.Request) {
	var model service.BatchModel[E]
	if err := decodeBody(r, &model); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	result, err := h.svc.Batch(r.Context(), &model)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, result)
}

type importResponse struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}

// handleImport saves every record of the uploaded multipart "file". The
// format follows the file extension.
func (h *Resource[E]) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, r, h.log, badRequest("file too large or invalid form", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, h.log, badRequest("no file provided", err))
		return
	}
	defer file.Close()

	list, err := h.svc.ImportData(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	resp := importResponse{Imported: len(list), IDs: make([]string, 0, len(list))}
	for _, e := range list {
		resp.IDs = append(resp.IDs, h.svc.Table().Audit(e).GetID())
	}
	writeJSON(w, h.log, http.StatusCreated, resp)
}

// handleExport downloads a workbook of the records named by ids, or of all
// records. The workbook is built before the first byte is sent so that a
// failure can still be reported as an error reply.
func (h *Resource[E]) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.svc.ExportData(r.Context(), parseIDs(r.URL.Query()["ids"]), &buf)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("export write failed", zap.String("file", name), zap.Error(err))
	}
}

// filters builds a probe record from the query parameters that name a
// field and turns it into the service's example predicate.
func (h *Resource[E]) filters(r *http.Request) (query.Predicate, error) {
	table := h.svc.Table()
	probe := table.New()
	for key, values := range r.URL.Query() {
		if reservedParams[key] || len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}
		col, ok := table.Column(key)
		if !ok {
			continue
		}
		if err := col.Parse(probe, values[0]); err != nil {
			return nil, badRequest("invalid filter "+key, err)
		}
	}
	return h.svc.Where(probe), nil
}

func (h *Resource[E]) notFound(id string) error {
	return fmt.Errorf("%s %s: %w", h.svc.Table().Name(), id, repository.ErrNotFound)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body", err)
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(val string, defaultVal int) int {
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseIDs accepts both ?ids=a,b and ?ids=a&ids=b.
func parseIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
