/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/smartplaylist/internal/auth"
	"github.com/friendsincode/smartplaylist/internal/playlists"
	"github.com/friendsincode/smartplaylist/internal/smartplaylist"
	"github.com/friendsincode/smartplaylist/internal/store"
)

const maxBodyBytes = 1 << 20

// API exposes smart playlist HTTP handlers.
type API struct {
	db        *gorm.DB
	playlists *playlists.Service
	jwtSecret []byte
	logger    zerolog.Logger
}

// New creates the API handler set.
func New(db *gorm.DB, svc *playlists.Service, jwtSecret []byte, logger zerolog.Logger) *API {
	return &API{
		db:        db,
		playlists: svc,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers API routes on the router.
func (a *API) Routes(r chi.Router) {
	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/fields", a.handleFields)
		r.Get("/suggestions", a.handleSuggestions)

		r.Route("/smart-playlists", func(r chi.Router) {
			r.Get("/", a.handleList)
			r.With(a.requireEditor()...).Post("/", a.handleCreate)
			r.Post("/preview", a.handlePreview)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.handleGet)
				r.With(a.requireEditor()...).Put("/", a.handleUpdate)
				r.With(a.requireEditor()...).Delete("/", a.handleDelete)
				r.Get("/sql", a.handleSQL)
				r.Get("/tracks", a.handleTracks)
				r.Get("/export", a.handleExport)
			})
		})
	})
}

func (a *API) requireEditor() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		auth.Middleware(a.jwtSecret),
		auth.RequireRole(auth.RoleEditor, auth.RoleAdmin),
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := a.playlists.List(r.Context())
	if err != nil {
		a.writeServiceError(w, err, "list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"smart_playlists": list})
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	p, err := a.playlists.Get(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, store.DefinitionOf(p))
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	def, ok := decodeDefinition(w, r)
	if !ok {
		return
	}
	def.ID = 0

	p, err := a.playlists.Save(r.Context(), def)
	if err != nil {
		a.writeServiceError(w, err, "create")
		return
	}
	a.logger.Info().Int64("playlist_id", p.ID).Str("user_id", userID(r)).Msg("smart playlist created")
	writeJSON(w, http.StatusCreated, store.DefinitionOf(p))
}

func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	def, ok := decodeDefinition(w, r)
	if !ok {
		return
	}
	def.ID = id

	p, err := a.playlists.Save(r.Context(), def)
	if err != nil {
		a.writeServiceError(w, err, "update")
		return
	}
	a.logger.Info().Int64("playlist_id", p.ID).Str("user_id", userID(r)).Msg("smart playlist updated")
	writeJSON(w, http.StatusOK, store.DefinitionOf(p))
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	if err := a.playlists.Delete(r.Context(), id); err != nil {
		a.writeServiceError(w, err, "delete")
		return
	}
	a.logger.Info().Int64("playlist_id", id).Str("user_id", userID(r)).Msg("smart playlist deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSQL(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	compiled, err := a.playlists.Compile(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err, "compile")
		return
	}
	writeJSON(w, http.StatusOK, compiled)
}

func (a *API) handleTracks(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	tracks, err := a.playlists.Tracks(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err, "tracks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	p, err := a.playlists.Get(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err, "export")
		return
	}
	out, err := store.DefinitionOf(p).YAML()
	if err != nil {
		a.writeServiceError(w, err, "export")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (a *API) handlePreview(w http.ResponseWriter, r *http.Request) {
	def, ok := decodeDefinition(w, r)
	if !ok {
		return
	}
	maxTracks, err := queryInt(r, "max")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_max")
		return
	}

	sql, tracks, err := a.playlists.Preview(r.Context(), def, maxTracks)
	if err != nil {
		a.writeServiceError(w, err, "preview")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sql": sql, "tracks": tracks})
}

func (a *API) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	if field == "" {
		writeError(w, http.StatusBadRequest, "field_required")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit")
		return
	}

	values, err := a.playlists.Suggestions(r.Context(), field, r.URL.Query().Get("prefix"), limit)
	if err != nil {
		a.writeServiceError(w, err, "suggestions")
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": values})
}

type fieldInfo struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Family    string   `json:"family"`
	Operators []string `json:"operators"`
}

func (a *API) handleFields(w http.ResponseWriter, r *http.Request) {
	fields := make([]fieldInfo, 0, len(smartplaylist.Fields()))
	for _, f := range smartplaylist.Fields() {
		info := fieldInfo{ID: f.ID(), Name: f.String(), Family: f.Family().Name()}
		for _, m := range f.Family().Values() {
			info.Operators = append(info.Operators, m.String())
		}
		fields = append(fields, info)
	}

	orders := make([]string, 0, len(smartplaylist.OrderBys()))
	for _, o := range smartplaylist.OrderBys() {
		orders = append(orders, o.String())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fields":      fields,
		"order_by":    orders,
		"match":       []string{smartplaylist.MatchAll.String(), smartplaylist.MatchAny.String()},
		"end_of_list": []string{smartplaylist.PlayNextList.String(), smartplaylist.Repeat.String(), smartplaylist.Stop.String()},
	})
}

// writeServiceError maps domain errors to HTTP statuses. Invalid arguments
// are checked first since they may also wrap a not-found cause.
func (a *API) writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, smartplaylist.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_argument", "detail": err.Error()})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, smartplaylist.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, store.ErrNameTaken):
		writeError(w, http.StatusConflict, "name_taken")
	case errors.Is(err, store.ErrInUse):
		writeError(w, http.StatusConflict, "in_use")
	default:
		a.logger.Error().Err(err).Str("operation", op).Msg("smart playlist request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func decodeDefinition(w http.ResponseWriter, r *http.Request) (store.Definition, bool) {
	var def store.Definition
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return store.Definition{}, false
	}
	return def, true
}

func playlistID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func userID(r *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims != nil {
		return claims.UserID
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
