package auth

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DerivedKeyLength is the gorilla/csrf key size.
const DerivedKeyLength = 32

const purposeCSRF = "mrintern-csrf-v1"

var ErrInvalidMasterSecret = errors.New("master secret cannot be empty")

// DeriveKey derives a 32-byte key from masterSecret with HKDF-SHA256. Distinct
// purpose strings yield independent keys.
func DeriveKey(masterSecret []byte, purpose string) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, ErrInvalidMasterSecret
	}

	reader := hkdf.New(sha256.New, masterSecret, nil, []byte(purpose))
	derivedKey := make([]byte, DerivedKeyLength)
	if _, err := io.ReadFull(reader, derivedKey); err != nil {
		return nil, err
	}
	return derivedKey, nil
}

// DeriveCSRFKey derives the gorilla/csrf authentication key.
func DeriveCSRFKey(masterSecret []byte) ([]byte, error) {
	return DeriveKey(masterSecret, purposeCSRF)
}
