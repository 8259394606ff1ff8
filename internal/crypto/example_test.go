package crypto_test

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sr093906/photok/internal/crypto"
	"github.com/sr093906/photok/internal/models"
)

func ExampleProvider_DeriveKEK() {
	provider := crypto.NewProvider()

	salt := make([]byte, crypto.SaltSize)
	key, err := provider.DeriveKEK("mypassphrase", salt, models.KDFVersionArgon2id)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Key length: %d bytes\n", len(key))
	// Output: Key length: 32 bytes
}

func ExampleNewEncryptingWriter() {
	provider := crypto.NewProvider()

	// In practice the master key comes from an unlocked keyfile.
	master := make([]byte, crypto.KeySize)
	for i := range master {
		master[i] = byte(i)
	}

	keys, err := provider.StreamKeys(master)
	if err != nil {
		panic(err)
	}

	var blob bytes.Buffer
	w, err := crypto.NewEncryptingWriter(&blob, keys)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write([]byte("Secret photo bytes")); err != nil {
		panic(err)
	}
	// Close appends the authentication tag.
	if err := w.Close(); err != nil {
		panic(err)
	}

	r, err := crypto.NewDecryptingReader(bytes.NewReader(blob.Bytes()), keys)
	if err != nil {
		panic(err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Decrypted: %s\n", plaintext)
	fmt.Printf("Overhead: %d bytes\n", blob.Len()-len(plaintext))
	// Output: Decrypted: Secret photo bytes
	// Overhead: 48 bytes
}

func ExampleValidateKeySize() {
	validKey := make([]byte, crypto.KeySize)
	err := crypto.ValidateKeySize(validKey)
	fmt.Printf("Valid key error: %v\n", err)

	invalidKey := make([]byte, 16)
	err = crypto.ValidateKeySize(invalidKey)
	fmt.Printf("Invalid key error: %v\n", err != nil)
	// Output: Valid key error: <nil>
	// Invalid key error: true
}
