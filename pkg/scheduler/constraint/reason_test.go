package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiftplan/shiftplan/pkg/model"
)

func TestClassification(t *testing.T) {
	for r := range obligatory {
		assert.True(t, IsObligatory(r), r)
		assert.False(t, IsSoft(r), r)
		assert.Equal(t, CategoryHard, Classify(r))
	}
	for r := range soft {
		assert.True(t, IsSoft(r), r)
		assert.False(t, IsObligatory(r), r)
		assert.Equal(t, CategorySoft, Classify(r))
	}
	assert.Equal(t, CategoryHard, Classify("something_new"))
}

func TestObligatoryReasons(t *testing.T) {
	reasons := ObligatoryReasons()
	assert.Len(t, reasons, 9)
	assert.NotContains(t, reasons, model.ReasonUnknownEmployee)
	assert.Equal(t, SortedUnique(reasons), reasons)
}

func TestUnknownEmployee_FailsClosed(t *testing.T) {
	r := model.ReasonUnknownEmployee
	assert.True(t, IsValidationOnly(r))
	assert.False(t, IsObligatory(r))
	assert.False(t, IsSoft(r))
	assert.Equal(t, CategoryHard, Classify(r))

	blocked, softened := Partition([]model.BlockReason{r, model.ReasonPrefNoWeekend}, model.ModeLoose)
	assert.Equal(t, []model.BlockReason{r}, blocked)
	assert.Equal(t, []model.BlockReason{model.ReasonPrefNoWeekend}, softened)
}

func TestPartition(t *testing.T) {
	reasons := []model.BlockReason{
		model.ReasonMonthlyHours,
		model.ReasonRestUnder11h,
		model.ReasonPrefNoWeekend,
		model.ReasonMaxSalary,
		model.ReasonRestUnder11h,
	}

	blocked, softened := Partition(reasons, model.ModeStrict)
	assert.Equal(t, []model.BlockReason{
		model.ReasonMaxSalary,
		model.ReasonMonthlyHours,
		model.ReasonPrefNoWeekend,
		model.ReasonRestUnder11h,
	}, blocked)
	assert.Empty(t, softened)

	blocked, softened = Partition(reasons, model.ModeLoose)
	assert.Equal(t, []model.BlockReason{model.ReasonMaxSalary, model.ReasonRestUnder11h}, blocked)
	assert.Equal(t, []model.BlockReason{model.ReasonMonthlyHours, model.ReasonPrefNoWeekend}, softened)
}
