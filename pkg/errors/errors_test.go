package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeStateConflict).HTTPStatus)
	assert.Equal(t, http.StatusNotFound, MetadataFor(CodeNotFound).HTTPStatus)

	// unknown codes fall back to internal
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Code("BOGUS")).HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("row missing")
	err := Wrap(CodeNotFound, cause, "order not found")

	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code())
	assert.ErrorIs(t, err, cause)
}

func TestAsUnwrapsNestedTypedError(t *testing.T) {
	t.Parallel()

	inner := New(CodeForbidden, "not the owner")
	wrapped := fmt.Errorf("handler: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeForbidden, typed.Code())

	assert.Nil(t, As(fmt.Errorf("plain")))
}

func TestDumpBuildsChain(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("constraint violated")
	err := Wrap(CodeDependency, cause, "persist order")

	d := Dump(err)
	assert.Equal(t, CodeDependency, d.Code)
	require.Len(t, d.Chain, 2)
	assert.Contains(t, d.Chain[1], "constraint violated")
}
