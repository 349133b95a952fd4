package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvAPIKey   = "IBM_API_KEY"
	EnvInstance = "QISKIT_IBM_INSTANCE"
)

var ErrMissingCredential = errors.New("missing credential")

// Credentials is the validated IBM Quantum account pair. Immutable after Load.
type Credentials struct {
	APIKey   string
	Instance string
}

// Load reads the secrets file at path (when present) and resolves both
// required variables from the process environment. Values already set in the
// environment win over the file.
func Load(path string) (Credentials, error) {
	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return Credentials{}, fmt.Errorf("credentials: parse secrets file %q: %w", path, err)
			}
		}
	}

	apiKey := strings.TrimSpace(os.Getenv(EnvAPIKey))
	if apiKey == "" {
		return Credentials{}, fmt.Errorf(
			"credentials: %w: %s is not set (create an API key at https://quantum.ibm.com/ and add it to your secrets file)",
			ErrMissingCredential, EnvAPIKey,
		)
	}

	instance := strings.TrimSpace(os.Getenv(EnvInstance))
	if instance == "" {
		return Credentials{}, fmt.Errorf(
			"credentials: %w: %s is not set (copy your instance CRN from https://quantum.ibm.com/ into your secrets file)",
			ErrMissingCredential, EnvInstance,
		)
	}

	return Credentials{APIKey: apiKey, Instance: instance}, nil
}
