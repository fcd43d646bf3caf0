package auth

import (
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{
			name:       "valid strong password",
			password:   "SecureP@ssword123",
			shouldFail: false,
		},
		{
			name:       "too short",
			password:   "Pass@1",
			shouldFail: true,
		},
		{
			name:       "missing uppercase",
			password:   "securepassword@123",
			shouldFail: true,
		},
		{
			name:       "missing lowercase",
			password:   "SECUREPASSWORD@123",
			shouldFail: true,
		},
		{
			name:       "missing digit",
			password:   "SecurePassword@!",
			shouldFail: true,
		},
		{
			name:       "missing special character",
			password:   "SecurePassword123",
			shouldFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.shouldFail && err == nil {
				t.Errorf("expected validation to fail for %q", tt.password)
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("expected validation to pass for %q, got %v", tt.password, err)
			}
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("SecureP@ssword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "SecureP@ssword123" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if err := ComparePassword(hash, "SecureP@ssword123"); err != nil {
		t.Errorf("ComparePassword rejected the correct password: %v", err)
	}
	if err := ComparePassword(hash, "WrongP@ssword123"); err == nil {
		t.Error("ComparePassword accepted the wrong password")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
