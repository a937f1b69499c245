package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/openapiroute/validation"
)

func TestTranslatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/foo", "/foo"},
		{"/", "/"},
		{"/items/{id}", "/items/:id"},
		{"/a/{x}/b/{y}", "/a/:x/b/:y"},
		{"/files/{name}.json", "/files/:name.json"},
		{"/users/{user_id}/posts/{postId}", "/users/:user_id/posts/:postId"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := TranslatePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslatePath_DuplicatePlaceholder(t *testing.T) {
	t.Parallel()

	_, err := TranslatePath("/a/{id}/b/{id}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, &validation.BuildError{Code: validation.DuplicatePlaceholder}))
	assert.Contains(t, err.Error(), "{id}")
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "handling", Handling.String())
	assert.True(t, Rejected.Terminal())
	assert.True(t, Handling.Terminal())
	assert.False(t, BodyValidating.Terminal())
	assert.False(t, Start.Terminal())
}
