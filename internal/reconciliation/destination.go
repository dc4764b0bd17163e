package reconciliation

import (
	"errors"
	"strings"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// Destination validation failures. These are expected business conditions,
// surfaced as sentinel errors so the workflow can pick the payer message.
var (
	ErrMissingExtraction = errors.New("oracle did not extract a payee identity")
	ErrMissingConfig     = errors.New("collection config is not set")
	ErrIdentityMismatch  = errors.New("receipt destination does not match collection identity")
)

// ValidateDestination confirms the payee read off the receipt is our
// collection identity. Receipts routinely carry extra text around the pix
// key or holder name (bank suffixes, asterisked documents), so matching is
// normalized substring containment, not equality.
func ValidateDestination(payee *models.PartyIdentity, cfg *models.CollectionConfig) error {
	if payee == nil {
		return ErrMissingExtraction
	}
	if cfg == nil {
		return ErrMissingConfig
	}

	extractedKey := normalizeIdentity(payee.PixKey)
	extractedName := normalizeIdentity(payee.Name)
	configKey := normalizeIdentity(cfg.PixKey)
	configName := normalizeIdentity(cfg.HolderName)

	if configKey != "" && extractedKey != "" && strings.Contains(extractedKey, configKey) {
		return nil
	}
	if configName != "" && extractedName != "" && strings.Contains(extractedName, configName) {
		return nil
	}
	return ErrIdentityMismatch
}

// normalizeIdentity lowercases, trims and collapses repeated internal
// whitespace.
func normalizeIdentity(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
