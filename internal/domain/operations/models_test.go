//go:build unit
// +build unit

package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BeginParamsValidationTests struct encapsulates the test data and methods for BeginParams validation
type BeginParamsValidationTests struct {
	validParams          BeginParams
	missingAliasParams   BeginParams
	invalidPurposeParams BeginParams
	invalidAliasParams   BeginParams
}

// NewBeginParamsValidationTests is a constructor to create a new instance of BeginParamsValidationTests
func NewBeginParamsValidationTests() *BeginParamsValidationTests {
	return &BeginParamsValidationTests{
		validParams: BeginParams{
			KeyAlias:  "device-attestation",
			Purpose:   PurposeSign,
			Pruneable: true,
		},
		missingAliasParams: BeginParams{
			KeyAlias: "", // Invalid empty KeyAlias
			Purpose:  PurposeVerify,
		},
		invalidPurposeParams: BeginParams{
			KeyAlias: "device-attestation",
			Purpose:  "wrap", // Invalid purpose
		},
		invalidAliasParams: BeginParams{
			KeyAlias: "device attestation", // Whitespace is not allowed
			Purpose:  PurposeSign,
		},
	}
}

// TestBeginParamsValidation tests the Validate method for BeginParams
func (tt *BeginParamsValidationTests) TestBeginParamsValidation(t *testing.T) {
	err := tt.validParams.Validate()
	assert.Nil(t, err, "Expected no validation errors for valid BeginParams")

	err = tt.missingAliasParams.Validate()
	require.NotNil(t, err, "Expected validation errors for BeginParams without key alias")
	assert.Contains(t, err.Error(), "Field: KeyAlias, Tag: required")

	err = tt.invalidPurposeParams.Validate()
	require.NotNil(t, err, "Expected validation errors for BeginParams with unknown purpose")
	assert.Contains(t, err.Error(), "Field: Purpose, Tag: oneof")

	err = tt.invalidAliasParams.Validate()
	require.NotNil(t, err, "Expected validation errors for BeginParams with a malformed key alias")
	assert.Contains(t, err.Error(), "Field: KeyAlias, Tag: keyalias")
}

// TestBeginParamsValidation is the entry point to run the BeginParams validation tests
func TestBeginParamsValidation(t *testing.T) {
	tt := NewBeginParamsValidationTests()

	t.Run("TestBeginParamsValidation", tt.TestBeginParamsValidation)
}

func TestToken(t *testing.T) {
	t.Run("zero token", func(t *testing.T) {
		var zero Token
		assert.True(t, zero.IsZero())
		assert.Equal(t, "<none>", zero.String())
	})

	t.Run("same serial never collides", func(t *testing.T) {
		a := NewToken(7)
		b := NewToken(7)

		assert.False(t, a.IsZero())
		assert.Equal(t, uint64(7), a.Serial())
		assert.NotEqual(t, a, b)
		assert.NotEqual(t, a.String(), b.String())
	})

	t.Run("string carries serial", func(t *testing.T) {
		tok := NewToken(255)
		assert.Contains(t, tok.String(), "00000000000000ff-")
	})
}
