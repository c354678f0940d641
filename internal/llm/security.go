package llm

import (
	"fmt"
	"strings"
)

// MaskAPIKey renders a key safe for logs, keeping only the last four
// characters visible.
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// ValidateAPIKey performs shape checks on a Gemini API key before it is
// handed to the provider.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("api key is empty")
	}
	if len(key) < 10 {
		return fmt.Errorf("api key is too short")
	}
	if !strings.HasPrefix(key, "AIza") {
		return fmt.Errorf("api key has unexpected format")
	}
	return nil
}
