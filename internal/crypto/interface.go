package crypto

// Provider defines the crypto operations the vault needs.
type Provider interface {
	// DeriveKEK derives the key-encryption key from a passphrase.
	DeriveKEK(passphrase string, salt []byte, kdfVersion int) ([]byte, error)

	// EncryptData wraps a small secret with AES-256-GCM.
	EncryptData(plaintext, key []byte) ([]byte, error)

	// DecryptData unwraps an EncryptData envelope.
	DecryptData(ciphertext, key []byte) ([]byte, error)

	// StreamKeys derives the stream cipher and MAC subkeys.
	StreamKeys(masterKey []byte) (*StreamKey, error)
}
