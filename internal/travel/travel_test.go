package travel_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/travelplanner/internal/travel"
)

func TestDisplayName_FallsBackToUsername(t *testing.T) {
	u := &travel.User{Username: "test_user"}
	assert.Equal(t, "test_user", u.DisplayName())

	u.FirstName = "Testing"
	assert.Equal(t, "Testing", u.DisplayName())

	u.FirstName = "   "
	assert.Equal(t, "test_user", u.DisplayName())
}

func TestSeedCitiesToVisit(t *testing.T) {
	assert.Equal(t, 250, travel.SeedCitiesToVisit("United States"))
	assert.Equal(t, 30, travel.SeedCitiesToVisit("Bulgaria"))
	assert.Equal(t, 30, travel.SeedCitiesToVisit("united states"))
}

func TestValidateDestination_Trims(t *testing.T) {
	name, country, err := travel.ValidateDestination("  Amsterdam ", " Netherlands")
	require.NoError(t, err)
	assert.Equal(t, "Amsterdam", name)
	assert.Equal(t, "Netherlands", country)
}

func TestValidateDestination_Rejects(t *testing.T) {
	cases := []struct {
		name, dest, country, field string
	}{
		{"empty name", "", "Netherlands", "destination_name"},
		{"blank name", "   ", "Netherlands", "destination_name"},
		{"long name", strings.Repeat("a", 91), "Netherlands", "destination_name"},
		{"empty country", "Amsterdam", "", "country"},
		{"long country", "Amsterdam", strings.Repeat("b", 51), "country"},
		{"invalid utf-8 name", "Ams\xffterdam", "Netherlands", "destination_name"},
		{"nul in name", "Ams\x00terdam", "Netherlands", "destination_name"},
		{"invalid utf-8 country", "Amsterdam", "Nether\xc3lands", "country"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := travel.ValidateDestination(tc.dest, tc.country)
			require.Error(t, err)

			var ve *travel.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestValidateDestination_CountsRunes(t *testing.T) {
	// 90 multi-byte runes are within the limit.
	_, _, err := travel.ValidateDestination(strings.Repeat("ö", 90), "Iceland")
	require.NoError(t, err)
}

func TestIsStorableText(t *testing.T) {
	assert.True(t, travel.IsStorableText("Zürich"))
	assert.False(t, travel.IsStorableText("Z\xfcrich"))
	assert.False(t, travel.IsStorableText("a\x00b"))
}

func TestIsValidation_Wrapped(t *testing.T) {
	err := fmt.Errorf("adding destination: %w", travel.NewValidationError("country", "please enter a valid country"))
	assert.True(t, travel.IsValidation(err))
	assert.False(t, travel.IsValidation(travel.ErrNotFound))
	assert.Equal(t, "country: please enter a valid country", travel.NewValidationError("country", "please enter a valid country").Error())
}
