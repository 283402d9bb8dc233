package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIsValidSuiAddress(t *testing.T) {
	valid := []string{
		"0x2",
		"0xabc123",
		"0x" + strings.Repeat("a", 64),
		"0xB41DF90ACF072D4C7E74F44091EBADBE63758B7B4A20EA1CFE6A7B4456FA5AFB"[:20],
	}
	for _, addr := range valid {
		if !IsValidSuiAddress(addr) {
			t.Errorf("IsValidSuiAddress(%q) = false, want true", addr)
		}
	}

	invalid := []string{
		"",
		"0x",
		"abc123",
		"0xzz",
		"0x" + strings.Repeat("a", 65),
		"0x abc",
	}
	for _, addr := range invalid {
		if IsValidSuiAddress(addr) {
			t.Errorf("IsValidSuiAddress(%q) = true, want false", addr)
		}
	}
}

func TestSanitizeAddress(t *testing.T) {
	cases := map[string]string{
		"  0xABC  ": "0xabc",
		"abc123":    "0xabc123",
		"0xdef":     "0xdef",
	}
	for in, want := range cases {
		if got := SanitizeAddress(in); got != want {
			t.Errorf("SanitizeAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  ", 100); got != "helloworld" {
		t.Errorf("SanitizeString = %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Errorf("SanitizeString truncation = %q", got)
	}
}

func TestValidate(t *testing.T) {
	errs := Validate(
		Required("address", ""),
		ValidAddress("address", "not-hex"),
	)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	if errs[0].Field != "address" {
		t.Errorf("field = %q", errs[0].Field)
	}

	errs = Validate(
		Required("address", "0xabc"),
		ValidAddress("address", "0xabc"),
		MaxLength("note", "short", 100),
	)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestAddressParamMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/wallets/:address", AddressParamMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wallets/0xabc123", nil))
	if w.Code != http.StatusOK {
		t.Errorf("valid address: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wallets/bogus", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid address: status = %d", w.Code)
	}
}
