package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/crackr/internal/errors"
)

type sample struct {
	Name string `validate:"required"`
	Box  int    `validate:"min=0,max=5"`
}

func TestStruct_Valid(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "x", Box: 3}))
}

func TestStruct_Invalid(t *testing.T) {
	err := Struct(sample{Box: 9})
	require.Error(t, err)

	cErr, ok := errors.As(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrValidation, cErr.Code)
	require.Equal(t, []string{"Name", "Box"}, cErr.Details["fields"])
	require.Contains(t, cErr.Message, "Box failed max=5")
	require.Contains(t, cErr.Message, "Name failed required")
}
