package earthengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Credentials is a service-account secret bundle. Field names follow the
// service-account JSON key file.
type Credentials struct {
	Type        string `json:"type,omitempty"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id,omitempty"`
	TokenURI    string `json:"token_uri,omitempty"`
}

var (
	ErrMissingClientEmail = errors.New("credentials: client_email is required")
	ErrMissingPrivateKey  = errors.New("credentials: private_key is required")
)

// Validate checks that the bundle is complete enough to sign a token request.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.ClientEmail) == "" {
		return ErrMissingClientEmail
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		return ErrMissingPrivateKey
	}
	return nil
}

// LoadCredentialsFile reads a service-account JSON key file.
func LoadCredentialsFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return c, nil
}

// keyJSON renders the bundle in the shape google.JWTConfigFromJSON expects.
// Private keys pasted into env files often carry literal "\n" sequences.
func (c Credentials) keyJSON() ([]byte, error) {
	out := c
	out.Type = "service_account"
	out.PrivateKey = strings.ReplaceAll(c.PrivateKey, `\n`, "\n")
	return json.Marshal(out)
}
