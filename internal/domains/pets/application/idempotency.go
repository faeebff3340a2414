package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	pettypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
)

// FingerprintAddPet hashes the fields of an AddPet request that decide which pet gets
// created. The idempotency key itself is excluded and surrounding whitespace ignored,
// so cosmetic retries still replay.
func FingerprintAddPet(input pettypes.AddPetInput) (string, error) {
	fields := struct {
		ID       string  `json:"id"`
		Genus    *string `json:"genus"`
		Quantity *int    `json:"quantity"`
	}{ID: strings.TrimSpace(input.ID), Quantity: input.Quantity}
	if input.Genus != nil {
		trimmed := strings.TrimSpace(*input.Genus)
		fields.Genus = &trimmed
	}

	digest := sha256.New()
	if err := json.NewEncoder(digest).Encode(fields); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
