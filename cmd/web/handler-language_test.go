package main

import "testing"

func Test_localRedirectTarget(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/"},
		{next: "/", want: "/"},
		{next: "/settings", want: "/settings"},
		{next: "/history/42?finished=1", want: "/history/42?finished=1"},
		{next: "settings", want: "/"},
		{next: "//evil.example", want: "/"},
		{next: `/\evil.example`, want: "/"},
		{next: "https://evil.example/", want: "/"},
		{next: "javascript:alert(1)", want: "/"},
	}
	for _, tt := range tests {
		if got := localRedirectTarget(tt.next); got != tt.want {
			t.Errorf("localRedirectTarget(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}
