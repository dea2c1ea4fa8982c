package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/purse/internal/domain"
)

// ErrMissingCredentials is returned when an account has no keys in the environment.
var ErrMissingCredentials = errors.New("missing credentials")

// Credentials of one exchange account.
type Credentials struct {
	APIKey    string
	APISecret string
	// PrivateKey and AccountAddress are used by wallet based exchanges (hyperliquid).
	PrivateKey     string
	AccountAddress string
}

// EnvCredentials reads credentials named <EXCHANGE>_<ACCOUNT>_API_KEY and friends.
type EnvCredentials struct {
	lookup func(string) (string, bool)
}

// NewEnvCredentials loads the given .env files (missing files are ignored) on top of the process environment.
func NewEnvCredentials(dotenv ...string) *EnvCredentials {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		// best-effort, real environment variables win over the file
		_ = godotenv.Load(path)
	}
	return &EnvCredentials{lookup: os.LookupEnv}
}

// NewMapCredentials serves credentials from a fixed map, keyed by environment variable name.
func NewMapCredentials(values map[string]string) *EnvCredentials {
	return &EnvCredentials{lookup: func(k string) (string, bool) {
		v, ok := values[k]
		return v, ok
	}}
}

// Credentials returns the credentials of id.
func (e *EnvCredentials) Credentials(id domain.AccountID) (Credentials, error) {
	prefix := strings.ToUpper(id.Exchange.String()) + "_" + strings.ToUpper(id.Account) + "_"

	if id.Exchange == domain.ExchangeHyperliquid {
		key := e.get(prefix + "PRIVATE_KEY")
		if key == "" {
			return Credentials{}, errors.Wrapf(ErrMissingCredentials, "%sPRIVATE_KEY for %s", prefix, id)
		}
		return Credentials{PrivateKey: key, AccountAddress: e.get(prefix + "ACCOUNT_ADDRESS")}, nil
	}

	creds := Credentials{
		APIKey:    e.get(prefix + "API_KEY"),
		APISecret: e.get(prefix + "API_SECRET"),
	}
	if creds.APIKey == "" || creds.APISecret == "" {
		return Credentials{}, errors.Wrapf(ErrMissingCredentials, "%sAPI_KEY and %sAPI_SECRET for %s", prefix, prefix, id)
	}
	return creds, nil
}

func (e *EnvCredentials) get(key string) string {
	v, _ := e.lookup(key)
	return strings.TrimSpace(v)
}
