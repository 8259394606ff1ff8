package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sr093906/photok/internal/models"
)

func validKeyfile() *models.Keyfile {
	return &models.Keyfile{
		SchemaVersion: models.KeyfileSchemaVersion,
		KDFVersion:    models.KDFVersionArgon2id,
		Salt:          "dGVzdHNhbHQxMjM0NTY3ODkwMTIzNDU2Nzg5MDEyMzQ1Ng==",
		WrappedKey:    "bm9uY2V0YWdhbmRjaXBoZXJ0ZXh0Ynl0ZXMtLS0tLS0tLQ==",
		CreatedAt:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestKeyfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Keyfile)
		wantErr string
	}{
		{
			name:   "valid keyfile",
			mutate: func(k *models.Keyfile) {},
		},
		{
			name:   "legacy KDF version",
			mutate: func(k *models.Keyfile) { k.KDFVersion = models.KDFVersionPBKDF2 },
		},
		{
			name:    "zero schema version",
			mutate:  func(k *models.Keyfile) { k.SchemaVersion = 0 },
			wantErr: "schema version must be >= 1",
		},
		{
			name:    "unsupported KDF version",
			mutate:  func(k *models.Keyfile) { k.KDFVersion = 99 },
			wantErr: "unsupported KDF version",
		},
		{
			name:    "missing salt",
			mutate:  func(k *models.Keyfile) { k.Salt = "" },
			wantErr: "salt is required",
		},
		{
			name:    "invalid salt encoding",
			mutate:  func(k *models.Keyfile) { k.Salt = "not-base64!" },
			wantErr: "invalid salt encoding",
		},
		{
			name:    "missing wrapped key",
			mutate:  func(k *models.Keyfile) { k.WrappedKey = "  " },
			wantErr: "wrapped key is required",
		},
		{
			name:    "invalid wrapped key encoding",
			mutate:  func(k *models.Keyfile) { k.WrappedKey = "also-not-base64!" },
			wantErr: "invalid wrapped key encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kf := validKeyfile()
			tt.mutate(kf)

			err := kf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
