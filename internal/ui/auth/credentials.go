// Пакет auth — учётные данные, сессионный токен и сессия Admin UI.
package auth

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" //nolint:gosec // MD5 — часть формата EVP_BytesToKey
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidCredentials — учётные данные не расшифрованы или неверны.
var ErrInvalidCredentials = errors.New("неверные учётные данные")

// Формат OpenSSL "Salted__": префикс + 8 байт соли + AES-256-CBC шифротекст.
const (
	saltedPrefix = "Salted__"
	saltSize     = 8
	keySize      = 32
)

// Credentials — логин и пароль, передаваемые при входе.
type Credentials struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// EncryptCredentials сериализует {userName, password} в JSON и шифрует
// паролем secret в формате OpenSSL/CryptoJS (AES-256-CBC, PKCS#7,
// ключ и IV через EVP_BytesToKey с MD5). Результат — base64-строка,
// которая передаётся как Bearer при POST /auth.
func EncryptCredentials(userName, password, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("секрет шифрования не задан")
	}

	plaintext, err := json.Marshal(Credentials{UserName: userName, Password: password})
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации учётных данных: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	key, iv := evpBytesToKey([]byte(secret), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(saltedPrefix)+saltSize+len(padded))
	copy(out, saltedPrefix)
	copy(out[len(saltedPrefix):], salt)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(saltedPrefix)+saltSize:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptCredentials — обратная операция к EncryptCredentials.
// Любая ошибка формата или неверный секрет — ErrInvalidCredentials.
func DecryptCredentials(ciphertext, secret string) (*Credentials, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный base64", ErrInvalidCredentials)
	}

	headerLen := len(saltedPrefix) + saltSize
	if len(raw) < headerLen+aes.BlockSize || !bytes.HasPrefix(raw, []byte(saltedPrefix)) {
		return nil, fmt.Errorf("%w: неизвестный формат", ErrInvalidCredentials)
	}
	body := raw[headerLen:]
	if len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: длина не кратна блоку", ErrInvalidCredentials)
	}

	key, iv := evpBytesToKey([]byte(secret), raw[len(saltedPrefix):headerLen])
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	var creds Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, fmt.Errorf("%w: некорректный JSON", ErrInvalidCredentials)
	}
	return &creds, nil
}

// evpBytesToKey выводит ключ AES-256 и IV из пароля и соли
// (OpenSSL EVP_BytesToKey, MD5, одна итерация).
func evpBytesToKey(password, salt []byte) (key, iv []byte) {
	var (
		derived []byte
		prev    []byte
	)
	for len(derived) < keySize+aes.BlockSize {
		h := md5.New() //nolint:gosec
		h.Write(prev)
		h.Write(password)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keySize], derived[keySize : keySize+aes.BlockSize]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("некорректная длина данных")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("некорректное выравнивание")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("некорректное выравнивание")
		}
	}
	return data[:len(data)-n], nil
}
