package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure-proxy.local:3128", "localhost, .internal.example")

	tests := []struct {
		url  string
		want string
	}{
		{"http://api.example.in/api/judgements", "http://proxy.local:3128"},
		{"https://api.example.in/api/judgements", "http://secure-proxy.local:3128"},
		{"http://localhost:8000/health", ""},
		{"https://db.internal.example/x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			if err != nil {
				t.Fatal(err)
			}
			got, err := proxy(req)
			if err != nil {
				t.Fatalf("proxy: %v", err)
			}
			gotStr := ""
			if got != nil {
				gotStr = got.String()
			}
			if gotStr != tt.want {
				t.Errorf("proxy(%s) = %q, want %q", tt.url, gotStr, tt.want)
			}
		})
	}
}
