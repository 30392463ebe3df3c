package auth_test

import (
	"testing"

	"github.com/myrjola/tatugym/internal/auth"
	"github.com/myrjola/tatugym/internal/errors"
)

func TestParseAccounts(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		wantErr bool
	}{
		{name: "single", list: "jessica:1345", wantErr: false},
		{name: "several with spaces", list: " jessica:1345 , ana:senha,", wantErr: false},
		{name: "password with colon", list: "jessica:a:b", wantErr: false},
		{name: "empty", list: "", wantErr: true},
		{name: "missing password", list: "jessica:", wantErr: true},
		{name: "missing separator", list: "jessica", wantErr: true},
		{name: "duplicate after normalisation", list: "jessica:1,JESSICA:2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ParseAccounts(tt.list)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAccounts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, auth.ErrInvalidAccounts) {
				t.Errorf("error %v is not ErrInvalidAccounts", err)
			}
		})
	}
}

func TestAccounts_Verify(t *testing.T) {
	accounts, err := auth.ParseAccounts("jessica:1345,ana:a:b")
	if err != nil {
		t.Fatalf("ParseAccounts: %v", err)
	}
	tests := []struct {
		name     string
		username string
		password string
		want     string
		wantErr  bool
	}{
		{name: "exact", username: "jessica", password: "1345", want: "jessica", wantErr: false},
		{name: "case and whitespace", username: "  Jessica ", password: "1345", want: "jessica", wantErr: false},
		{name: "password with colon", username: "ana", password: "a:b", want: "ana", wantErr: false},
		{name: "wrong password", username: "jessica", password: "1346", want: "", wantErr: true},
		{name: "password is case sensitive", username: "ana", password: "A:B", want: "", wantErr: true},
		{name: "unknown member", username: "maria", password: "1345", want: "", wantErr: true},
		{name: "empty", username: "", password: "", want: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounts.Verify(tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, auth.ErrInvalidCredentials) {
					t.Errorf("Verify() error = %v, want ErrInvalidCredentials", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Verify() = %q, want %q", got, tt.want)
			}
		})
	}

	if !accounts.Contains("ANA") || accounts.Contains("maria") {
		t.Error("Contains() does not match the allow-list")
	}
}
