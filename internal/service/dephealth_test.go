// dephealth_test.go — unit-тесты конфигурации мониторинга зависимостей.
package service

import (
	"errors"
	"testing"
	"time"
)

// TestCatalogHealthPath проверяет путь health check API каталога.
func TestCatalogHealthPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "корень",
			input:    "http://catalog:8090",
			expected: "/getproducts",
		},
		{
			name:     "корень со слэшем",
			input:    "http://catalog:8090/",
			expected: "/getproducts",
		},
		{
			name:     "с префиксом",
			input:    "https://api.example.com/v1",
			expected: "/v1/getproducts",
		},
		{
			name:     "префикс со слэшем",
			input:    "https://api.example.com/v1/",
			expected: "/v1/getproducts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := catalogHealthPath(tt.input); got != tt.expected {
				t.Errorf("catalogHealthPath(%q) = %q, ожидается %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestNewDephealthService_NoDependencies проверяет отказ без зависимостей.
func TestNewDephealthService_NoDependencies(t *testing.T) {
	_, err := NewDephealthService("catalog-admin", "catalog", Dependencies{}, 15*time.Second, testLogger())
	if !errors.Is(err, ErrNoDependencies) {
		t.Errorf("ошибка = %v, ожидается ErrNoDependencies", err)
	}
}
