package client

import (
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Claim keys forwarded as user headers.
var claimHeaders = []struct {
	claim  string
	header string
}{
	{"user_id", "X-User-ID"},
	{"email", "X-User-Email"},
	{"role", "X-User-Role"},
	{"healthcare_entity_id", "X-Healthcare-Entity-ID"},
}

// userHeaders extracts the user headers from token without verifying its
// signature; the gateway verifies it. Tokens that do not parse yield none.
func userHeaders(token string) (http.Header, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	out := http.Header{}
	for _, item := range claimHeaders {
		if v, ok := claimString(claims[item.claim]); ok {
			out.Set(item.header, v)
		}
	}
	return out, nil
}

func claimString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}
