package snapshot

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}

	plaintext := []byte(`{"version":"1.0","lists":[]}`)
	sealed, err := Encrypt(plaintext, "correct horse", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("ciphertext must not contain the plaintext")
	}

	opened, err := Decrypt(sealed, "correct horse")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("round trip = %q, want %q", opened, plaintext)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	salt, _ := GenerateSalt()
	sealed, err := Encrypt([]byte("secret"), "right", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := Decrypt(sealed, "wrong"); err == nil {
		t.Error("expected wrong passphrase to fail")
	}
}

func TestDecryptCorruptedData(t *testing.T) {
	salt, _ := GenerateSalt()
	sealed, err := Encrypt([]byte("secret"), "pass", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff

	if _, err := Decrypt(sealed, "pass"); err == nil {
		t.Error("expected corrupted ciphertext to fail")
	}
}

func TestDecryptTruncatedData(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "pass"); err == nil {
		t.Error("expected truncated data to fail")
	}
}

func TestEncryptRequiresProperSalt(t *testing.T) {
	if _, err := Encrypt([]byte("x"), "pass", []byte("tiny")); err == nil {
		t.Error("expected undersized salt to be rejected")
	}
}
