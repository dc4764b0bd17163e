package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruanvls/zapcobranca/internal/models"
)

func TestValidateDestination(t *testing.T) {
	cfg := &models.CollectionConfig{
		PixKey:     "11987654321",
		HolderName: "Maria da Silva",
	}

	tests := []struct {
		name    string
		payee   *models.PartyIdentity
		cfg     *models.CollectionConfig
		wantErr error
	}{
		{
			name:    "missing extraction",
			payee:   nil,
			cfg:     cfg,
			wantErr: ErrMissingExtraction,
		},
		{
			name:    "missing config",
			payee:   &models.PartyIdentity{PixKey: "11987654321"},
			cfg:     nil,
			wantErr: ErrMissingConfig,
		},
		{
			name:  "exact pix key",
			payee: &models.PartyIdentity{PixKey: "11987654321"},
			cfg:   cfg,
		},
		{
			name:  "pix key embedded in extra text",
			payee: &models.PartyIdentity{PixKey: "Chave: +55 11987654321 (celular)"},
			cfg:   cfg,
		},
		{
			name:  "holder name with casing and extra spaces",
			payee: &models.PartyIdentity{Name: "  MARIA   DA  SILVA  LTDA "},
			cfg:   cfg,
		},
		{
			name:    "neither field matches",
			payee:   &models.PartyIdentity{Name: "João Pereira", PixKey: "11900000000"},
			cfg:     cfg,
			wantErr: ErrIdentityMismatch,
		},
		{
			name:    "empty identity fields",
			payee:   &models.PartyIdentity{},
			cfg:     cfg,
			wantErr: ErrIdentityMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDestination(tt.payee, tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "maria da silva", normalizeIdentity("  MARIA   da  Silva "))
	assert.Equal(t, "", normalizeIdentity("   "))
}
