package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "https", raw: "https://example.com", wantErr: false},
		{name: "http with path", raw: "http://example.com/a/b?c=d", wantErr: false},
		{name: "ftp", raw: "ftp://files.example.com/pub", wantErr: false},
		{name: "no scheme", raw: "not-a-url", wantErr: true},
		{name: "relative path", raw: "/docs/page", wantErr: true},
		{name: "scheme without host", raw: "javascript:alert(1)", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "bad escape", raw: "https://exa mple.com/%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.raw)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tt.raw)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateURL(%q) = %v, want nil", tt.raw, err)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateURL(%q) error should match ErrValidation, got %v", tt.raw, err)
			}
		})
	}
}

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name      string
		in        Entry
		want      Entry
		wantField string
	}{
		{
			name: "trims both fields",
			in:   Entry{URL: "  https://example.com  ", Note: "  read later "},
			want: Entry{URL: "https://example.com", Note: "read later"},
		},
		{
			name:      "blank note",
			in:        Entry{URL: "https://example.com", Note: "   "},
			wantField: "note",
		},
		{
			name:      "invalid url checked first",
			in:        Entry{URL: "not-a-url", Note: ""},
			wantField: "url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateEntry(tt.in)
			if tt.wantField != "" {
				if err == nil {
					t.Fatalf("ValidateEntry() = nil, want error on %s", tt.wantField)
				}
				if field := FieldOf(err); field != tt.wantField {
					t.Errorf("FieldOf() = %q, want %q", field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateEntry() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateEntry() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	if _, err := ValidateCredentials("ab", "secret1"); FieldOf(err) != "username" {
		t.Errorf("short username should fail on username, got %v", err)
	}
	if _, err := ValidateCredentials("alice", "12345"); FieldOf(err) != "password" {
		t.Errorf("short password should fail on password, got %v", err)
	}
	name, err := ValidateCredentials("  alice ", "123456")
	if err != nil {
		t.Fatalf("ValidateCredentials() error = %v", err)
	}
	if name != "alice" {
		t.Errorf("ValidateCredentials() name = %q, want %q", name, "alice")
	}
}

func TestMessage(t *testing.T) {
	wrapped := NetworkFailure(errors.New("dial tcp: connection refused"))
	if !errors.Is(wrapped, ErrNetworkFailure) {
		t.Fatalf("NetworkFailure() should match ErrNetworkFailure")
	}

	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: Invalid("note", "Note must not be empty"), want: "Note must not be empty"},
		{err: ErrDuplicateName, want: "Username already exists!"},
		{err: ErrInvalidCredentials, want: "Invalid username or password!"},
		{err: ErrPermissionDenied, want: "Admin access required!"},
		{err: fmt.Errorf("%w: cannot delete your own account", ErrPermissionDenied), want: "permission denied: cannot delete your own account"},
		{err: wrapped, want: "network failure: dial tcp: connection refused"},
	}

	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
