package testutil

import (
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/sr093906/photok/internal/crypto"
)

// MockProvider mocks crypto.Provider for failure injection. The real
// provider is cheap enough for most tests; reach for this when a KDF
// or envelope step has to fail on cue.
type MockProvider struct {
	mock.Mock
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) DeriveKEK(passphrase string, salt []byte, kdfVersion int) ([]byte, error) {
	args := m.Called(passphrase, salt, kdfVersion)
	if key := args.Get(0); key != nil {
		return key.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) EncryptData(plaintext, key []byte) ([]byte, error) {
	args := m.Called(plaintext, key)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) DecryptData(ciphertext, key []byte) ([]byte, error) {
	args := m.Called(ciphertext, key)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) StreamKeys(masterKey []byte) (*crypto.StreamKey, error) {
	args := m.Called(masterKey)
	if keys := args.Get(0); keys != nil {
		return keys.(*crypto.StreamKey), args.Error(1)
	}
	return nil, args.Error(1)
}

// StaticKeySource serves a fixed key bundle and counts activity
// signals. It stands in for the session service wherever a test only
// needs keys, not passphrase handling.
type StaticKeySource struct {
	StreamKeys *crypto.StreamKey
	Err        error

	activity atomic.Int64
}

// NewStaticKeySource creates a key source backed by the fixed test keys.
func NewStaticKeySource() *StaticKeySource {
	return &StaticKeySource{StreamKeys: TestStreamKeys()}
}

func (s *StaticKeySource) Keys() (*crypto.StreamKey, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.StreamKeys, nil
}

func (s *StaticKeySource) Activity() {
	s.activity.Add(1)
}

// ActivityCount reports how many activity signals arrived.
func (s *StaticKeySource) ActivityCount() int64 {
	return s.activity.Load()
}

// AssertMockExpectations verifies all mock expectations.
func AssertMockExpectations(t TestingT, mocks ...interface{}) {
	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(TestingT) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}

// TestingT is a minimal interface for testing.T compatibility.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
}
