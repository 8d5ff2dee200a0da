package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/constraint"
)

func TestGetLibrary_Classification(t *testing.T) {
	lib := GetLibrary()
	require.Len(t, lib, 19)

	seen := make(map[model.BlockReason]bool, len(lib))
	for _, d := range lib {
		assert.False(t, seen[d.Name], "duplicate %s", d.Name)
		seen[d.Name] = true

		assert.NotEmpty(t, d.DisplayName, d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
		assert.NotNil(t, d.Params, d.Name)
		if constraint.IsSoft(d.Name) {
			assert.Equal(t, model.ConstraintSoft, d.Type, d.Name)
		} else {
			assert.True(t, constraint.IsObligatory(d.Name) || constraint.IsValidationOnly(d.Name),
				"%s is neither soft nor obligatory", d.Name)
			assert.Equal(t, model.ConstraintHard, d.Type, d.Name)
		}
	}
}

func TestByType(t *testing.T) {
	hard := ByType(model.ConstraintHard)
	soft := ByType(model.ConstraintSoft)
	assert.Len(t, hard, 10)
	assert.Len(t, soft, 9)

	for _, d := range soft {
		assert.Contains(t, []string{categoryPreference, categoryWorkingTime}, d.Category, d.Name)
	}
}
