package login

import (
	"errors"
	"testing"
)

func TestValidatePasswordPolicy(t *testing.T) {
	cases := []struct {
		name string
		pwd  string
		ok   bool
	}{
		{name: "valid mixed", pwd: "Hidrometro#2026", ok: true},
		{name: "letters only", pwd: "abcdefghijklmno", ok: false},
		{name: "missing symbol", pwd: "Hidrometro2026", ok: false},
		{name: "short", pwd: "A1!bc", ok: false},
		{name: "multibyte counts runes", pwd: "Água#Leitura1", ok: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordPolicy(tc.pwd)
			if tc.ok && err != nil {
				t.Fatalf("expected valid password, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected policy error")
			}
		})
	}
}

func TestValidatePasswordForUser(t *testing.T) {
	if err := ValidatePasswordForUser("sindico@condo.test", "Sindico#2026xyz"); !errors.Is(err, ErrPasswordContainsUsername) {
		t.Fatalf("expected ErrPasswordContainsUsername, got %v", err)
	}
	if err := ValidatePasswordForUser("sindico@condo.test", "Hidrometro#2026"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePasswordForUser("al@condo.test", "Always#Valid2026"); err != nil {
		t.Fatalf("short local part should not be checked: %v", err)
	}
}
