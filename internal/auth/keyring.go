package auth

import (
	"github.com/zalando/go-keyring"
)

const (
	serviceName = "folio"
	// credentialKey is the single fixed key the credential mirror lives under.
	credentialKey = "folio::access_token"
)

// keyringAvailable probes the system keyring with a throwaway entry.
func keyringAvailable() bool {
	testKey := "folio::probe"
	if err := keyring.Set(serviceName, testKey, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, testKey) // Best-effort cleanup
	return true
}

// keyringMirror stores the credential in the system keyring.
type keyringMirror struct{}

func (keyringMirror) load() (string, error) {
	token, err := keyring.Get(serviceName, credentialKey)
	if err != nil {
		return "", errNotFound
	}
	return token, nil
}

func (keyringMirror) save(token string) error {
	return keyring.Set(serviceName, credentialKey, token)
}

func (keyringMirror) remove() error {
	if err := keyring.Delete(serviceName, credentialKey); err != nil {
		return errNotFound
	}
	return nil
}

func (keyringMirror) filePath() string { return "" }
