package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageQuery struct {
	Limit  int    `query:"limit" validate:"gte=1,lte=100"`
	Offset int    `query:"offset" validate:"gte=0"`
	Source string `query:"source" validate:"required"`
}

func TestValidateStruct_UsesQueryTagNames(t *testing.T) {
	v := NewValidator()

	err := v.ValidateStruct(pageQuery{Limit: 101, Offset: -1})
	require.Error(t, err)

	fields := FormatValidationErrors(err)
	assert.Equal(t, "limit must be less than or equal to 100", fields["limit"])
	assert.Equal(t, "offset must be greater than or equal to 0", fields["offset"])
	assert.Equal(t, "source is required", fields["source"])
}

func TestValidateStruct_Valid(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateStruct(pageQuery{Limit: 100, Offset: 0, Source: "file"}))
}

func TestSummary(t *testing.T) {
	v := NewValidator()

	err := v.ValidateStruct(pageQuery{Limit: 0, Source: "x"})
	require.Error(t, err)
	assert.Equal(t, "limit must be greater than or equal to 1", Summary(err))

	err = v.ValidateStruct(pageQuery{Limit: 0, Offset: -5, Source: "x"})
	require.Error(t, err)
	assert.Equal(t, "limit must be greater than or equal to 1; offset must be greater than or equal to 0", Summary(err))

	assert.Equal(t, "plain", Summary(errors.New("plain")))
}
