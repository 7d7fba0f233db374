package inference

import (
	"strings"
	"testing"

	"github.com/aquawatch/aquawatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSamples_StripsLabelColumn(t *testing.T) {
	in := strings.NewReader("ph,turbidity,Potability\n7.0,3.1,1\n6.5,4.0,0\n")

	frame, err := ParseSamples(in, "Potability")
	require.NoError(t, err)

	assert.Equal(t, []string{"ph", "turbidity"}, frame.Columns)
	require.Equal(t, 2, frame.NumSamples())
	assert.Equal(t, []float64{7.0, 3.1}, frame.Rows[0])
	assert.Equal(t, []float64{6.5, 4.0}, frame.Rows[1])
}

func TestParseSamples_LabelColumnAbsent(t *testing.T) {
	in := strings.NewReader("ph,turbidity\n7.0,3.1\n")

	frame, err := ParseSamples(in, "Potability")
	require.NoError(t, err)
	assert.Equal(t, 2, frame.NumFeatures())
	assert.Equal(t, 1, frame.NumSamples())
}

func TestParseSamples_EmptyFile(t *testing.T) {
	_, err := ParseSamples(strings.NewReader(""), "Potability")
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestParseSamples_HeaderOnly(t *testing.T) {
	_, err := ParseSamples(strings.NewReader("ph,turbidity\n"), "Potability")
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestParseSamples_OnlyLabelColumn(t *testing.T) {
	_, err := ParseSamples(strings.NewReader("Potability\n1\n0\n"), "Potability")
	assert.ErrorIs(t, err, common.ErrNoFeatures)
}

func TestParseSamples_NonNumericCell(t *testing.T) {
	_, err := ParseSamples(strings.NewReader("ph\nacidic\n"), "Potability")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestParseSamples_RaggedRows(t *testing.T) {
	_, err := ParseSamples(strings.NewReader("ph,turbidity\n7.0\n"), "Potability")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestParseSamples_LabelValuesIgnored(t *testing.T) {
	// non-numeric ground truth must not fail parsing once stripped
	in := strings.NewReader("ph,Potability\n7.0,yes\n")

	frame, err := ParseSamples(in, "Potability")
	require.NoError(t, err)
	assert.Equal(t, []float64{7.0}, frame.Rows[0])
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(common.ErrEmptyInput))
	assert.True(t, IsValidationError(common.ErrNoFeatures))
	assert.True(t, IsValidationError(common.ErrUnsupportedFormat))
	assert.False(t, IsValidationError(common.ErrScoringFailed))
}
