package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Credentials are decoded from an API key
type Credentials struct {
	Host           string `json:"host"`
	JWT            string `json:"jwt"`
	OrganizationID string `json:"-"`
}

type jwtClaims struct {
	Organization struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"organization"`
}

// DecodeAPIKey decodes a base64 JSON {host, jwt} key and the organization carried by the token
func DecodeAPIKey(apiKey string) (*Credentials, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNotLoggedIn
	}
	data, err := decodeBase64(apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode: %v", ErrInvalidAPIKey, err)
	}
	ret := &Credentials{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("%w: failed to decode: %v", ErrInvalidAPIKey, err)
	}
	if ret.Host == "" {
		return nil, fmt.Errorf("%w: missing or invalid host field", ErrInvalidAPIKey)
	}
	if ret.JWT == "" {
		return nil, fmt.Errorf("%w: missing or invalid jwt field", ErrInvalidAPIKey)
	}
	claims, err := decodeClaims(ret.JWT)
	if err != nil || claims.Organization.ID == "" {
		return nil, fmt.Errorf("%w: missing organizationId in JWT", ErrInvalidAPIKey)
	}
	ret.Host = strings.TrimSuffix(ret.Host, "/")
	ret.OrganizationID = claims.Organization.ID
	return ret, nil
}

// decodeClaims reads the token payload without verifying its signature
func decodeClaims(token string) (*jwtClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed token: expected 3 parts, got %d", len(parts))
	}
	data, err := decodeBase64(parts[1])
	if err != nil {
		return nil, err
	}
	ret := &jwtClaims{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func decodeBase64(value string) ([]byte, error) {
	value = strings.TrimRight(value, "=")
	if strings.ContainsAny(value, "-_") {
		return base64.RawURLEncoding.DecodeString(value)
	}
	return base64.RawStdEncoding.DecodeString(value)
}
