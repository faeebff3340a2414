package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPet_Validates(t *testing.T) {
	tests := []struct {
		name     string
		genus    string
		quantity int
		wantErr  error
	}{
		{name: "valid", genus: "Canis", quantity: 30},
		{name: "zero quantity", genus: "Boas", quantity: 0},
		{name: "blank genus", genus: "   ", quantity: 1, wantErr: ErrEmptyGenus},
		{name: "negative quantity", genus: "Panthera", quantity: -1, wantErr: ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pet, err := NewPet("p1", tt.genus, tt.quantity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, pet)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "p1", pet.ID)
			require.Equal(t, tt.quantity, pet.Quantity)
		})
	}
}

func TestAssignID_IsImmutable(t *testing.T) {
	pet, err := NewPet("", "Canis", 3)
	require.NoError(t, err)

	require.NoError(t, pet.AssignID("p1"))
	require.NoError(t, pet.AssignID("p1"))
	require.ErrorIs(t, pet.AssignID("p2"), ErrIdentifierChange)
	require.Equal(t, "p1", pet.ID)
}

func TestDescriptive_DropsIdentifier(t *testing.T) {
	pet := &Pet{ID: "p1", Genus: "Canis", Quantity: 30}
	copy := pet.Descriptive()
	require.Empty(t, copy.ID)
	require.Equal(t, "Canis", copy.Genus)
	require.Equal(t, 30, copy.Quantity)

	copy.Genus = "Felis"
	require.Equal(t, "Canis", pet.Genus)
}
