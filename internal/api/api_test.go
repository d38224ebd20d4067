/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"github.com/friendsincode/smartplaylist/internal/auth"
	"github.com/friendsincode/smartplaylist/internal/cache"
	"github.com/friendsincode/smartplaylist/internal/db"
	"github.com/friendsincode/smartplaylist/internal/events"
	"github.com/friendsincode/smartplaylist/internal/library"
	"github.com/friendsincode/smartplaylist/internal/models"
	"github.com/friendsincode/smartplaylist/internal/playlists"
	"github.com/friendsincode/smartplaylist/internal/store"
	"github.com/friendsincode/smartplaylist/internal/suggest"
)

var testSecret = []byte("test-secret")

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	database, err := db.Open(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	albums := []models.Album{{ID: 1, Name: "Blue Train"}, {ID: 2, Name: "Giant Steps"}}
	media := []models.Media{
		{ID: 1, MediaType: library.MediaTypeAudio, Location: "/1", Title: "Blue Train", AlbumID: 1, Year: 1957},
		{ID: 2, MediaType: library.MediaTypeAudio, Location: "/2", Title: "Giant Steps", AlbumID: 2, Year: 1960},
	}
	if err := database.Create(&albums).Error; err != nil {
		t.Fatalf("seed albums: %v", err)
	}
	if err := database.Create(&media).Error; err != nil {
		t.Fatalf("seed media: %v", err)
	}

	bus := events.NewBus()
	svc := playlists.New(playlists.Config{
		DB:              database,
		Store:           store.New(database, bus, zerolog.Nop()),
		Cache:           cache.Disabled(zerolog.Nop()),
		Bus:             bus,
		Suggestions:     suggest.NewFactory(database, zerolog.Nop()),
		SuggestionLimit: 20,
	}, zerolog.Nop())

	r := chi.NewRouter()
	New(database, svc, testSecret, zerolog.Nop()).Routes(r)
	return r
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	tok, err := auth.Issue(testSecret, auth.Claims{UserID: "u-1", Roles: roles}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func do(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

var sixtiesDefinition = store.Definition{
	Name:    "sixties",
	OrderBy: "title",
	Rules:   []store.RuleDefinition{{Field: "year", Op: "is_greater_than", First: 1959}},
}

func TestSmartPlaylistLifecycle(t *testing.T) {
	h := newTestRouter(t)
	editor := token(t, auth.RoleEditor)

	rr := do(t, h, http.MethodPost, "/api/v1/smart-playlists", editor, sixtiesDefinition)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rr.Code, rr.Body.String())
	}
	created := decode[store.Definition](t, rr)
	if created.ID == 0 || created.Name != "sixties" || len(created.Rules) != 1 {
		t.Fatalf("unexpected created %+v", created)
	}
	base := "/api/v1/smart-playlists/" + strconv.FormatInt(created.ID, 10)

	rr = do(t, h, http.MethodGet, "/api/v1/smart-playlists", "", nil)
	list := decode[struct {
		SmartPlaylists []store.Summary `json:"smart_playlists"`
	}](t, rr)
	if len(list.SmartPlaylists) != 1 || list.SmartPlaylists[0].ID != created.ID {
		t.Fatalf("unexpected list %s", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, base, "", nil)
	if rr.Code != http.StatusOK || decode[store.Definition](t, rr).OrderBy != "title" {
		t.Fatalf("get: status %d body %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, base+"/sql", "", nil)
	compiled := decode[cache.CompiledQuery](t, rr)
	if rr.Code != http.StatusOK || !strings.Contains(compiled.SQL, `"Media"."Year" > 1959`) {
		t.Fatalf("sql: status %d body %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, base+"/tracks", "", nil)
	tracks := decode[struct {
		Tracks []playlists.Track `json:"tracks"`
	}](t, rr)
	if len(tracks.Tracks) != 1 || tracks.Tracks[0].Title != "Giant Steps" || tracks.Tracks[0].Album != "Giant Steps" {
		t.Fatalf("tracks: %s", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, base+"/export", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "name: sixties") {
		t.Fatalf("export: status %d body %s", rr.Code, rr.Body.String())
	}

	updated := sixtiesDefinition
	updated.Name = "modern"
	rr = do(t, h, http.MethodPut, base, editor, updated)
	if rr.Code != http.StatusOK || decode[store.Definition](t, rr).Name != "modern" {
		t.Fatalf("update: status %d body %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodDelete, base, editor, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d body %s", rr.Code, rr.Body.String())
	}
	rr = do(t, h, http.MethodGet, base, "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", rr.Code)
	}
}

func TestWriteRoutesRequireEditor(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		want   int
	}{
		{"create without token", http.MethodPost, "/api/v1/smart-playlists", "", http.StatusUnauthorized},
		{"create with bad token", http.MethodPost, "/api/v1/smart-playlists", "garbage", http.StatusUnauthorized},
		{"create as listener", http.MethodPost, "/api/v1/smart-playlists", token(t, "listener"), http.StatusForbidden},
		{"delete without token", http.MethodDelete, "/api/v1/smart-playlists/1", "", http.StatusUnauthorized},
		{"update as listener", http.MethodPut, "/api/v1/smart-playlists/1", token(t, "listener"), http.StatusForbidden},
		{"create as admin", http.MethodPost, "/api/v1/smart-playlists", token(t, auth.RoleAdmin), http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, tt.bearer, sixtiesDefinition)
			if rr.Code != tt.want {
				t.Fatalf("status %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestRouter(t)
	editor := token(t, auth.RoleEditor)
	if rr := do(t, h, http.MethodPost, "/api/v1/smart-playlists", editor, sixtiesDefinition); rr.Code != http.StatusCreated {
		t.Fatalf("seed: %d %s", rr.Code, rr.Body.String())
	}

	badRule := store.Definition{Name: "bad", Rules: []store.RuleDefinition{{Field: "year", Op: "contains"}}}
	missingTarget := store.Definition{Name: "orphan", Rules: []store.RuleDefinition{{Field: "playlist", Op: "is", Playlist: "nope"}}}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
		code   string
	}{
		{"invalid rule", http.MethodPost, "/api/v1/smart-playlists", badRule, http.StatusBadRequest, "invalid_argument"},
		{"missing playlist target", http.MethodPost, "/api/v1/smart-playlists", missingTarget, http.StatusBadRequest, "invalid_argument"},
		{"duplicate name", http.MethodPost, "/api/v1/smart-playlists", sixtiesDefinition, http.StatusConflict, "name_taken"},
		{"malformed json", http.MethodPost, "/api/v1/smart-playlists", "not an object", http.StatusBadRequest, "invalid_json"},
		{"bad id", http.MethodGet, "/api/v1/smart-playlists/abc", nil, http.StatusBadRequest, "invalid_id"},
		{"unknown id", http.MethodGet, "/api/v1/smart-playlists/404/sql", nil, http.StatusNotFound, "not_found"},
		{"update unknown id", http.MethodPut, "/api/v1/smart-playlists/404", store.Definition{Name: "ghost"}, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, editor, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
			if got := decode[map[string]string](t, rr)["error"]; got != tt.code {
				t.Fatalf("error %q, want %q", got, tt.code)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/api/v1/smart-playlists/preview?max=1", "", store.Definition{Name: "draft", OrderBy: "title"})
	if rr.Code != http.StatusOK {
		t.Fatalf("preview: status %d body %s", rr.Code, rr.Body.String())
	}
	got := decode[struct {
		SQL    string            `json:"sql"`
		Tracks []playlists.Track `json:"tracks"`
	}](t, rr)
	if len(got.Tracks) != 1 || got.Tracks[0].Title != "Blue Train" || got.SQL == "" {
		t.Fatalf("unexpected preview %s", rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/api/v1/smart-playlists/preview?max=x", "", store.Definition{Name: "draft"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad max, got %d", rr.Code)
	}
}

func TestSuggestionsAndFields(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/api/v1/suggestions?field=album&prefix=gi", "", nil)
	got := decode[map[string][]string](t, rr)
	if rr.Code != http.StatusOK || len(got["suggestions"]) != 1 || got["suggestions"][0] != "Giant Steps" {
		t.Fatalf("suggestions: status %d body %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/api/v1/suggestions?field=rating", "", nil)
	if got := decode[map[string][]string](t, rr); rr.Code != http.StatusOK || len(got["suggestions"]) != 0 {
		t.Fatalf("rating suggestions: status %d body %s", rr.Code, rr.Body.String())
	}

	for _, path := range []string{"/api/v1/suggestions", "/api/v1/suggestions?field=mood"} {
		if rr := do(t, h, http.MethodGet, path, "", nil); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rr.Code)
		}
	}

	rr = do(t, h, http.MethodGet, "/api/v1/fields", "", nil)
	fields := decode[struct {
		Fields  []fieldInfo `json:"fields"`
		OrderBy []string    `json:"order_by"`
	}](t, rr)
	if len(fields.Fields) != 17 || len(fields.OrderBy) != 15 {
		t.Fatalf("unexpected fields payload %s", rr.Body.String())
	}
	if fields.Fields[0].Name != "title" || len(fields.Fields[0].Operators) != 6 {
		t.Fatalf("unexpected first field %+v", fields.Fields[0])
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK || decode[map[string]string](t, rr)["status"] != "ok" {
		t.Fatalf("health: status %d body %s", rr.Code, rr.Body.String())
	}
}
