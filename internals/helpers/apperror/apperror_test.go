package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{name: "not found", err: NotFound("book %s", "x"), kind: KindNotFound, status: http.StatusNotFound},
		{name: "conflict", err: Conflict("dup"), kind: KindConflict, status: http.StatusConflict},
		{name: "bad request", err: BadRequest("early"), kind: KindBadRequest, status: http.StatusBadRequest},
		{name: "invariant", err: DomainInvariant("no winner"), kind: KindDomainInvariant, status: http.StatusUnprocessableEntity},
		{name: "forbidden", err: Forbidden("not the donor"), kind: KindForbidden, status: http.StatusForbidden},
		{name: "wrapped by fmt", err: fmt.Errorf("ctx: %w", Conflict("dup")), kind: KindConflict, status: http.StatusConflict},
		{name: "plain error", err: errors.New("boom"), kind: KindUnknown, status: http.StatusInternalServerError},
		{name: "nil", err: nil, kind: KindUnknown, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, KindOf(tt.err).HTTPStatus())
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(KindConflict, cause, "already requested")

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsConflict(err))
	assert.Equal(t, "already requested", MessageOf(err))
	assert.Equal(t, "already requested: duplicate key", err.Error())
}
