package persist

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

const (
	// snapshotMagic is prepended to encrypted snapshot files.
	snapshotMagic = "DECKFLOW1"

	// Argon2id parameters (RFC 9106 recommendations).
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32 // AES-256

	saltLength = 32
)

// ExportSnapshot writes every record in the store to path as JSON.
// With a non-empty password the payload is sealed with
// Argon2id-derived AES-256-GCM.
func ExportSnapshot(store Store, path, password string) error {
	records, err := store.List()
	if err != nil {
		return fmt.Errorf("collect snapshot: %w", err)
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if password != "" {
		payload, err = sealSnapshot(payload, password)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ImportSnapshot reads a snapshot file (sealed or plain) and replays
// its records into the store. Existing records for the same keys are
// overwritten.
func ImportSnapshot(store Store, path, password string) (int, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	if isSealed(payload) {
		if password == "" {
			return 0, fmt.Errorf("snapshot is encrypted, password required")
		}
		payload, err = openSnapshot(payload, password)
		if err != nil {
			return 0, err
		}
	}

	var records map[string]*Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}

	imported := 0
	for key, record := range records {
		if err := store.Save(key, record); err != nil {
			return imported, fmt.Errorf("import %s: %w", key, err)
		}
		imported++
	}
	return imported, nil
}

// isSealed reports whether the payload carries the encrypted-snapshot
// magic header.
func isSealed(payload []byte) bool {
	return len(payload) > len(snapshotMagic) &&
		string(payload[:len(snapshotMagic)]) == snapshotMagic
}

// sealSnapshot encrypts the payload. Layout: magic | salt | nonce | ciphertext.
func sealSnapshot(payload []byte, password string) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(snapshotMagic)+len(salt)+len(nonce)+len(payload)+gcm.Overhead())
	out = append(out, snapshotMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, payload, nil)
	return out, nil
}

// openSnapshot decrypts a sealed payload.
func openSnapshot(payload []byte, password string) ([]byte, error) {
	rest := payload[len(snapshotMagic):]
	if len(rest) < saltLength {
		return nil, fmt.Errorf("snapshot truncated")
	}
	salt, rest := rest[:saltLength], rest[saltLength:]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("snapshot truncated")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt snapshot: %w", err)
	}
	return plain, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}
