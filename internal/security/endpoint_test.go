package security

import "testing"

func TestValidateEndpointURL(t *testing.T) {
	// Hostname cases stick to IP literals and the blocked-name list so no
	// DNS resolution happens in tests.
	cases := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"public IP", "http://8.8.8.8", false},
		{"public IP with port", "https://1.1.1.1:443/v1", false},
		{"loopback", "http://127.0.0.1:9000", true},
		{"private 10.x", "http://10.0.0.5", true},
		{"private 192.168.x", "http://192.168.1.1:8080", true},
		{"link-local", "http://169.254.169.254", true},
		{"unspecified", "http://0.0.0.0", true},
		{"localhost", "http://localhost:4317", true},
		{"metadata host", "http://metadata.google.internal", true},
		{"bad scheme", "ftp://8.8.8.8", true},
		{"no host", "http://", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEndpointURL(tc.url)
			if tc.wantErr && err == nil {
				t.Errorf("ValidateEndpointURL(%q) = nil, want error", tc.url)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateEndpointURL(%q) = %v, want nil", tc.url, err)
			}
		})
	}
}
