package auth

import (
	"errors"
	"strings"
	"testing"
)

const testSecret = "silvifrid-secret"

// TestDecryptCredentials_OpenSSLVector проверяет совместимость с форматом
// OpenSSL/CryptoJS: строка получена командой
// `openssl enc -aes-256-cbc -md md5 -pass pass:silvifrid-secret -base64`.
func TestDecryptCredentials_OpenSSLVector(t *testing.T) {
	vector := "U2FsdGVkX18BAgMEBQYHCALmVHzsOHA8EpQotqJmMo7qqmE304F0WRYM0u43RZqdrEpsxiQdrK4GBRG+McaRUw=="

	creds, err := DecryptCredentials(vector, testSecret)
	if err != nil {
		t.Fatalf("DecryptCredentials() вернул ошибку: %v", err)
	}
	if creds.UserName != "admin" || creds.Password != "admin" {
		t.Errorf("DecryptCredentials() = %+v, ожидается admin/admin", creds)
	}
}

func TestEncryptDecryptCredentials_RoundTrip(t *testing.T) {
	encrypted, err := EncryptCredentials("gerente", "contraseña-123", testSecret)
	if err != nil {
		t.Fatalf("EncryptCredentials() вернул ошибку: %v", err)
	}

	// Формат OpenSSL: base64("Salted__...") начинается с U2FsdGVkX1
	if !strings.HasPrefix(encrypted, "U2FsdGVkX1") {
		t.Errorf("EncryptCredentials() = %q, ожидается префикс Salted__", encrypted)
	}
	if strings.Contains(encrypted, "gerente") {
		t.Error("зашифрованная строка содержит логин в открытом виде")
	}

	creds, err := DecryptCredentials(encrypted, testSecret)
	if err != nil {
		t.Fatalf("DecryptCredentials() вернул ошибку: %v", err)
	}
	if creds.UserName != "gerente" || creds.Password != "contraseña-123" {
		t.Errorf("DecryptCredentials() = %+v", creds)
	}
}

func TestEncryptCredentials_RandomSalt(t *testing.T) {
	a, err := EncryptCredentials("admin", "admin", testSecret)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncryptCredentials("admin", "admin", testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("два шифрования одних данных совпали — соль не случайна")
	}
}

func TestEncryptCredentials_EmptySecret(t *testing.T) {
	if _, err := EncryptCredentials("admin", "admin", ""); err == nil {
		t.Error("EncryptCredentials() без секрета не вернул ошибку")
	}
}

func TestDecryptCredentials_Invalid(t *testing.T) {
	valid, err := EncryptCredentials("admin", "admin", testSecret)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		ciphertext string
		secret     string
	}{
		{"не base64", "%%%", testSecret},
		{"нет префикса Salted__", "aGVsbG8gd29ybGQgaGVsbG8gd29ybGQgaGVsbG8=", testSecret},
		{"слишком короткий", "U2FsdGVkX18BAgMEBQYHCA==", testSecret},
		{"неверный секрет", valid, "другой-секрет"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptCredentials(tt.ciphertext, tt.secret)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("DecryptCredentials() ошибка = %v, ожидается ErrInvalidCredentials", err)
			}
		})
	}
}
