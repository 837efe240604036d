package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/crypto/scrypt"
)

// Scrypt parameters for the secrets file key derivation.
const (
	scryptN = 32768
	scryptR = 8
	scryptP = 1
	keySize = 32

	saltSize  = 16
	nonceSize = 12
)

// SecretsFileName is the encrypted secrets file kept next to the config.
const SecretsFileName = "secrets.json.enc"

// Secrets holds decrypted API keys, keyed by provider name.
type Secrets map[string]string

// EncryptSecrets serializes and encrypts secrets with a password-derived
// key. Layout: salt || nonce || ciphertext.
func EncryptSecrets(secrets Secrets, password []byte) ([]byte, error) {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal secrets: %w", err)
	}
	defer zeroBytes(plaintext)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// DecryptSecrets reverses EncryptSecrets. A wrong password fails GCM
// authentication and returns an error.
func DecryptSecrets(data, password []byte) (Secrets, error) {
	if len(data) < saltSize+nonceSize {
		return nil, fmt.Errorf("secrets file too short")
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	ciphertext := data[saltSize+nonceSize:]

	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secrets (wrong password?): %w", err)
	}
	defer zeroBytes(plaintext)

	var secrets Secrets
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	return secrets, nil
}

// WriteSecretsFile encrypts and writes secrets to path with 0600 perms.
func WriteSecretsFile(path string, secrets Secrets, password []byte) error {
	data, err := EncryptSecrets(secrets, password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file %s: %w", path, err)
	}
	return nil
}

// ReadSecretsFile reads and decrypts the secrets file at path.
func ReadSecretsFile(path string, password []byte) (Secrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	return DecryptSecrets(data, password)
}

// GetAPIKey resolves the API key for a provider: the decrypted secrets
// file wins, then the conventional environment variable. secrets may be
// nil when no secrets file is in use.
func GetAPIKey(secrets Secrets, provider string) string {
	if key, ok := secrets[provider]; ok && key != "" {
		return key
	}
	if envVar := APIKeyEnvVar(provider); envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
