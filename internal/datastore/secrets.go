package datastore

import (
	"crypto/aes"
	"crypto/cipher"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// The data-service secret rests on disk encrypted with a symmetric key and
// IV compiled into the binary, matching the installer that writes the
// file.
var (
	secretKey = [16]byte{0x6f, 0x70, 0x65, 0x6e, 0x62, 0x61, 0x74, 0x63, 0x68, 0x2d, 0x64, 0x73, 0x6b, 0x65, 0x79, 0x31}
	secretIV  = [16]byte{0x0b, 0xa7, 0xc4, 0x11, 0x5e, 0x22, 0x19, 0x8d, 0x30, 0x47, 0xfa, 0x6c, 0x91, 0x58, 0x2e, 0xd3}
)

// maxSecretFileSize bounds the encrypted blob; anything larger is treated
// as a corrupt credential store rather than read into memory.
const maxSecretFileSize = 4096

const secretFileName = "db_password"

func secretFilePath(homePath string) string {
	return filepath.Join(homePath, "server_priv", secretFileName)
}

// loadSecret retrieves the data-service secret for account. If no secret
// file exists under homePath the account name itself is the secret
// (bootstrap mode, before the installer has stored a real one). A file
// that exists but cannot be read safely is an error.
//
// The returned slice holds credential material; the caller must pass it
// through scrub as soon as it has been consumed.
func loadSecret(homePath, account string) ([]byte, error) {
	path := secretFilePath(homePath)
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return []byte(account), nil
	}
	if err != nil {
		return nil, failf(FailAuthRetrieval, "%s: stat failed: %v", path, err)
	}
	if fi.Size() == 0 || fi.Size() > maxSecretFileSize {
		return nil, failf(FailAuthRetrieval, "%s: unexpected size %d", path, fi.Size())
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, failf(FailAuthRetrieval, "%s: read failed: %v", path, err)
	}
	secret, err := decryptSecret(blob)
	if err != nil {
		return nil, failf(FailAuthRetrieval, "%s: %v", path, err)
	}
	return secret, nil
}

// decryptSecret decrypts an AES-CBC blob produced by encryptSecret. A blob
// that is not a whole number of cipher blocks, or whose padding does not
// verify, has been truncated or corrupted and is rejected.
func decryptSecret(blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(secretKey[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(blob) == 0 || len(blob)%aes.BlockSize != 0 {
		return nil, errors.Errorf("encrypted secret is truncated (%d bytes)", len(blob))
	}
	buf := make([]byte, len(blob))
	cipher.NewCBCDecrypter(block, secretIV[:]).CryptBlocks(buf, blob)

	// PKCS#7 unpad.
	pad := int(buf[len(buf)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(buf) {
		return nil, errors.New("encrypted secret has invalid padding")
	}
	for _, b := range buf[len(buf)-pad:] {
		if int(b) != pad {
			return nil, errors.New("encrypted secret has invalid padding")
		}
	}
	secret := buf[:len(buf)-pad]
	scrub(buf[len(buf)-pad:])
	return secret, nil
}

// encryptSecret is the inverse of decryptSecret; the password maintenance
// command uses it to write a new secret file.
func encryptSecret(secret []byte) ([]byte, error) {
	block, err := aes.NewCipher(secretKey[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	pad := aes.BlockSize - len(secret)%aes.BlockSize
	buf := make([]byte, len(secret)+pad)
	copy(buf, secret)
	for i := len(secret); i < len(buf); i++ {
		buf[i] = byte(pad)
	}
	cipher.NewCBCEncrypter(block, secretIV[:]).CryptBlocks(buf, buf)
	return buf, nil
}

// WriteSecretFile encrypts secret and stores it under homePath, creating
// the private server directory if needed.
func WriteSecretFile(homePath string, secret []byte) error {
	blob, err := encryptSecret(secret)
	if err != nil {
		return err
	}
	dir := filepath.Dir(secretFilePath(homePath))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(secretFilePath(homePath), blob, 0o600))
}

// scrub zeroes credential material in place. Explicit zeroing before the
// buffer goes out of scope is a hard security invariant of this package,
// not an optimization.
func scrub(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
