package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type enumPayload struct {
	Role        string `json:"role" validate:"omitempty,role"`
	MemoryType  string `json:"memory_type" validate:"omitempty,memorytype"`
	Measurement string `json:"measurement" validate:"omitempty,measurement"`
}

func TestDomainEnumAliases(t *testing.T) {
	require.NoError(t, ValidateStruct(enumPayload{
		Role:        "family",
		MemoryType:  "drawing",
		Measurement: "head_circumference",
	}))

	err := ValidateStruct(enumPayload{Role: "admin"})
	require.Error(t, err)
	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 1)
	require.Equal(t, "role", ve[0].Field)

	require.Error(t, ValidateStruct(enumPayload{MemoryType: "hologram"}))
	require.Error(t, ValidateStruct(enumPayload{Measurement: "wingspan"}))
}

func TestFieldNamesComeFromJSONTags(t *testing.T) {
	type payload struct {
		DisplayName string `json:"display_name" validate:"required"`
	}

	err := ValidateStruct(payload{})
	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 1)
	require.Equal(t, "display_name", ve[0].Field)
	require.Equal(t, "required", ve[0].Tag)
}
