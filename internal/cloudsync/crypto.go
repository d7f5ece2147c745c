package cloudsync

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Encrypted blob layout, format version 1:
//
//	magic "SKBK" | format version (1 byte) | salt (16 bytes) |
//	nonce (12 bytes) | AES-256-GCM ciphertext + tag
//
// The key is derived with Argon2id. The KDF parameters are part of the
// format version: changing any of them requires bumping blobFormatV1 and
// keeping the old path for decryption.
const (
	blobMagic    = "SKBK"
	blobFormatV1 = 1

	saltSize = 16
	keySize  = 32

	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keySize)
}

// seal encrypts plaintext under a password-derived key with a fresh random
// salt and nonce, producing a self-describing blob.
func seal(password string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := newAEAD(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := make([]byte, 0, len(blobMagic)+1+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	blob = append(blob, blobMagic...)
	blob = append(blob, blobFormatV1)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// open decrypts a blob produced by seal. Any failure - truncated header,
// unknown format, bad tag - is reported as ErrInvalidPasswordOrCorruptData
// since a wrong password and a corrupted blob are indistinguishable.
func open(password string, blob []byte) ([]byte, error) {
	header := len(blobMagic) + 1 + saltSize
	if len(blob) < header || string(blob[:len(blobMagic)]) != blobMagic {
		return nil, ErrInvalidPasswordOrCorruptData
	}
	if blob[len(blobMagic)] != blobFormatV1 {
		return nil, ErrInvalidPasswordOrCorruptData
	}

	salt := blob[len(blobMagic)+1 : header]
	aead, err := newAEAD(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}

	if len(blob) < header+aead.NonceSize() {
		return nil, ErrInvalidPasswordOrCorruptData
	}
	nonce := blob[header : header+aead.NonceSize()]
	ciphertext := blob[header+aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidPasswordOrCorruptData
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}
	return aead, nil
}
