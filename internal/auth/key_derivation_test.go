package auth

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name         string
		masterSecret []byte
		purpose      string
		wantErr      error
	}{
		{name: "valid derivation", masterSecret: []byte("a-master-secret-for-testing"), purpose: "test-v1"},
		{name: "empty master secret", masterSecret: []byte{}, purpose: "test-v1", wantErr: ErrInvalidMasterSecret},
		{name: "nil master secret", masterSecret: nil, purpose: "test-v1", wantErr: ErrInvalidMasterSecret},
		{name: "empty purpose is allowed", masterSecret: []byte("secret"), purpose: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(tt.masterSecret, tt.purpose)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DeriveKey() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveKey() unexpected error: %v", err)
			}
			if len(key) != DerivedKeyLength {
				t.Errorf("len(key) = %d, want %d", len(key), DerivedKeyLength)
			}
		})
	}
}

func TestDerivedKeysAreDeterministic(t *testing.T) {
	secret := []byte("deterministic-secret")
	a, _ := DeriveCSRFKey(secret)
	b, _ := DeriveCSRFKey(secret)
	if !bytes.Equal(a, b) {
		t.Error("DeriveCSRFKey() is not deterministic")
	}
}

func TestPurposesAreSeparate(t *testing.T) {
	secret := []byte("shared-master-secret")
	session, err := DeriveKey(secret, "another-purpose-v1")
	if err != nil {
		t.Fatal(err)
	}
	csrf, err := DeriveCSRFKey(secret)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(session, csrf) {
		t.Error("keys for different purposes must differ")
	}
	if bytes.Equal(session, secret) {
		t.Error("derived key must not equal the master secret")
	}
}

func TestDifferentMasterSecretsProduceDifferentKeys(t *testing.T) {
	a, _ := DeriveCSRFKey([]byte("secret-one"))
	b, _ := DeriveCSRFKey([]byte("secret-two"))
	if bytes.Equal(a, b) {
		t.Error("different master secrets produced the same key")
	}
}
