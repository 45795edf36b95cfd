// Package crud builds list/detail/create/update handlers for a model from a
// few capabilities: a Store to persist it, a Build/Apply pair to map request
// bodies onto it, and a Present func to shape the response.
package crud

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "sharebook_backend/internals/helpers"
	"sharebook_backend/internals/helpers/apperror"
)

// ListQuery is what List receives from the request.
type ListQuery struct {
	Offset int
	Limit  int
	Search string
	Params map[string]string
}

// Store persists M. Missing rows are reported as gorm.ErrRecordNotFound.
type Store[M any] interface {
	List(ctx context.Context, q ListQuery) ([]M, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*M, error)
	Create(ctx context.Context, m *M) error
	Save(ctx context.Context, m *M) error
}

// NoInput is the input type of read-only resources.
type NoInput struct{}

type Resource[M any, In any] struct {
	Name  string
	Store Store[M]

	DefaultPerPage int
	MaxPerPage     int
	// Params are query parameters copied into ListQuery.Params.
	Params []string

	Present func(m *M) any
	Build   func(c *fiber.Ctx, in *In) (*M, error)
	Apply   func(c *fiber.Ctx, in *In, m *M) error
}

func (r *Resource[M, In]) present(m *M) any {
	if r.Present == nil {
		return m
	}
	return r.Present(m)
}

func (r *Resource[M, In]) notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s not found", r.Name)
	}
	return err
}

// List handles GET / with ?page, ?per_page and ?q.
func (r *Resource[M, In]) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, r.DefaultPerPage, r.MaxPerPage)
	q := ListQuery{
		Offset: p.Offset,
		Limit:  p.Limit,
		Search: strings.TrimSpace(c.Query("q")),
		Params: map[string]string{},
	}
	for _, name := range r.Params {
		if v := strings.TrimSpace(c.Query(name)); v != "" {
			q.Params[name] = v
		}
	}

	rows, total, err := r.Store.List(c.UserContext(), q)
	if err != nil {
		return helper.FromError(c, err)
	}
	out := make([]any, 0, len(rows))
	for i := range rows {
		out = append(out, r.present(&rows[i]))
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, r.Name+" list", out, &pg)
}

// Detail handles GET /:id.
func (r *Resource[M, In]) Detail(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := r.Store.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, r.notFound(err))
	}
	return helper.JsonOK(c, r.Name+" detail", r.present(m))
}

// Create handles POST /: validate, Build, persist.
func (r *Resource[M, In]) Create(c *fiber.Ctx) error {
	if r.Build == nil {
		return helper.JsonError(c, fiber.StatusMethodNotAllowed, "")
	}
	var in In
	if ok, err := helper.BindAndValidate(c, &in); !ok {
		return err
	}
	m, err := r.Build(c, &in)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := r.Store.Create(c.UserContext(), m); err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, r.Name+" created", r.present(m))
}

// Update handles PUT /:id: load, validate, Apply, persist.
func (r *Resource[M, In]) Update(c *fiber.Ctx) error {
	if r.Apply == nil {
		return helper.JsonError(c, fiber.StatusMethodNotAllowed, "")
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := r.Store.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, r.notFound(err))
	}
	var in In
	if ok, err := helper.BindAndValidate(c, &in); !ok {
		return err
	}
	if err := r.Apply(c, &in, m); err != nil {
		return helper.FromError(c, err)
	}
	if err := r.Store.Save(c.UserContext(), m); err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, r.Name+" updated", r.present(m))
}

// Mount registers the handlers the resource can serve under router.
func (r *Resource[M, In]) Mount(router fiber.Router) {
	router.Get("/", r.List)
	router.Get("/:id", r.Detail)
	if r.Build != nil {
		router.Post("/", r.Create)
	}
	if r.Apply != nil {
		router.Put("/:id", r.Update)
	}
}
