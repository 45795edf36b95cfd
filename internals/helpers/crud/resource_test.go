package crud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sharebook_backend/internals/helpers/apperror"
)

type shelf struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Secret string    `json:"secret,omitempty"`
}

type shelfInput struct {
	Name string `json:"name" validate:"required,min=2"`
}

type memShelves struct {
	mu    sync.Mutex
	rows  []shelf
	lastQ ListQuery
}

func (s *memShelves) List(ctx context.Context, q ListQuery) ([]shelf, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQ = q
	var match []shelf
	for _, r := range s.rows {
		if q.Search == "" || strings.Contains(r.Name, q.Search) {
			match = append(match, r)
		}
	}
	total := int64(len(match))
	if q.Offset >= len(match) {
		return nil, total, nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > len(match) {
		end = len(match)
	}
	return match[q.Offset:end], total, nil
}

func (s *memShelves) Get(ctx context.Context, id uuid.UUID) (*shelf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memShelves) Create(ctx context.Context, m *shelf) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Name == m.Name {
			return apperror.Conflict("shelf %q already exists", m.Name)
		}
	}
	s.rows = append(s.rows, *m)
	return nil
}

func (s *memShelves) Save(ctx context.Context, m *shelf) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == m.ID {
			s.rows[i] = *m
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func newShelfApp(store *memShelves) *fiber.App {
	res := &Resource[shelf, shelfInput]{
		Name:           "shelf",
		Store:          store,
		DefaultPerPage: 2,
		MaxPerPage:     5,
		Params:         []string{"room"},
		Present: func(m *shelf) any {
			cp := *m
			cp.Secret = ""
			return cp
		},
		Build: func(c *fiber.Ctx, in *shelfInput) (*shelf, error) {
			return &shelf{ID: uuid.New(), Name: in.Name, Secret: "s"}, nil
		},
		Apply: func(c *fiber.Ctx, in *shelfInput, m *shelf) error {
			if in.Name == "locked" {
				return apperror.DomainInvariant("shelf cannot be renamed to %s", in.Name)
			}
			m.Name = in.Name
			return nil
		},
	}
	app := fiber.New()
	res.Mount(app.Group("/shelves"))
	return app
}

func do(t *testing.T, app *fiber.App, method, url, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestResourceList(t *testing.T) {
	store := &memShelves{}
	for _, n := range []string{"alpha", "beta", "gamma"} {
		store.rows = append(store.rows, shelf{ID: uuid.New(), Name: n, Secret: "x"})
	}
	app := newShelfApp(store)

	status, body := do(t, app, http.MethodGet, "/shelves?page=2&room=kids", "")

	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "gamma", data[0].(map[string]any)["name"])
	assert.NotContains(t, data[0].(map[string]any), "secret")

	pg := body["pagination"].(map[string]any)
	assert.EqualValues(t, 3, pg["total"])
	assert.EqualValues(t, 2, pg["total_pages"])
	assert.Equal(t, false, pg["has_next"])
	assert.Equal(t, "kids", store.lastQ.Params["room"])
	assert.Equal(t, 2, store.lastQ.Offset)
}

func TestResourceDetail(t *testing.T) {
	id := uuid.New()
	app := newShelfApp(&memShelves{rows: []shelf{{ID: id, Name: "alpha"}}})

	status, body := do(t, app, http.MethodGet, "/shelves/"+id.String(), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alpha", body["data"].(map[string]any)["name"])

	status, body = do(t, app, http.MethodGet, "/shelves/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "shelf not found", body["message"])

	status, _ = do(t, app, http.MethodGet, "/shelves/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestResourceCreate(t *testing.T) {
	store := &memShelves{}
	app := newShelfApp(store)

	status, body := do(t, app, http.MethodPost, "/shelves", `{"name":"novels"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "novels", body["data"].(map[string]any)["name"])
	require.Len(t, store.rows, 1)
	assert.Equal(t, "s", store.rows[0].Secret)

	status, _ = do(t, app, http.MethodPost, "/shelves", `{"name":"novels"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, body = do(t, app, http.MethodPost, "/shelves", `{"name":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"].(map[string]any), "name")

	status, _ = do(t, app, http.MethodPost, "/shelves", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestResourceUpdate(t *testing.T) {
	id := uuid.New()
	store := &memShelves{rows: []shelf{{ID: id, Name: "alpha"}}}
	app := newShelfApp(store)

	status, _ := do(t, app, http.MethodPut, "/shelves/"+id.String(), `{"name":"omega"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "omega", store.rows[0].Name)

	status, _ = do(t, app, http.MethodPut, "/shelves/"+id.String(), `{"name":"locked"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "omega", store.rows[0].Name)

	status, _ = do(t, app, http.MethodPut, "/shelves/"+uuid.NewString(), `{"name":"omega"}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReadOnlyResourceMountsNoWrites(t *testing.T) {
	res := &Resource[shelf, NoInput]{Name: "shelf", Store: &memShelves{}}
	app := fiber.New()
	res.Mount(app.Group("/shelves"))

	req := httptest.NewRequest(http.MethodPost, "/shelves", strings.NewReader(`{}`))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
