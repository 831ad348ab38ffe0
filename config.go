package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"
)

// DefaultContextKey is where the JWT middleware stores claims
const DefaultContextKey = "user"

// MinSigningKeyLength is the shortest accepted HMAC secret
const MinSigningKeyLength = 16

// Options is the runtime configuration, loaded from CHARCHAT_* variables
type Options struct {
	SigningKey      string        `env:"CHARCHAT_JWT_SECRET"`
	TokenTTL        time.Duration `env:"CHARCHAT_TOKEN_TTL" envDefault:"168h"`
	Issuer          string        `env:"CHARCHAT_ISSUER" envDefault:"charchat"`
	Audience        []string      `env:"CHARCHAT_AUDIENCE" envSeparator:","`
	DSN             string        `env:"CHARCHAT_DSN" envDefault:"file:charchat.db?cache=shared"`
	Addr            string        `env:"CHARCHAT_ADDR" envDefault:":8572"`
	HashCost        int           `env:"CHARCHAT_HASH_COST" envDefault:"12"`
	HashConcurrency int           `env:"CHARCHAT_HASH_CONCURRENCY"`
	UseHashid       bool          `env:"CHARCHAT_USE_HASHID"`
	Debug           bool          `env:"CHARCHAT_DEBUG"`
	ContextKey      string        `env:"CHARCHAT_CONTEXT_KEY" envDefault:"user"`
	TokenLookup     string        `env:"CHARCHAT_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme      string        `env:"CHARCHAT_AUTH_SCHEME" envDefault:"Bearer"`
}

var _ Config = (*Options)(nil)
var _ PersistenceConfig = (*Options)(nil)

// LoadOptions reads the configuration from environment. A nil map reads
// the process environment. There is no default signing key: a missing or
// short CHARCHAT_JWT_SECRET is an error.
func LoadOptions(environment map[string]string) (*Options, error) {
	o := &Options{}

	opts := env.Options{}
	if environment != nil {
		opts.Environment = environment
	}

	if err := env.ParseWithOptions(o, opts); err != nil {
		return nil, withCause(ErrInvalidConfig, fmt.Errorf("parse env: %w", err))
	}

	o.SigningKey = strings.TrimSpace(o.SigningKey)
	if o.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	if err := o.Validate(); err != nil {
		return nil, withValidation(ErrInvalidConfig, FormatValidationErrorToMap(err), err)
	}

	return o, nil
}

// Validate checks the option values
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.SigningKey,
			validation.Required,
			validation.Length(MinSigningKeyLength, 0).Error(fmt.Sprintf("must be at least %d characters", MinSigningKeyLength)),
		),
		validation.Field(&o.TokenTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&o.DSN, validation.Required),
		validation.Field(&o.Addr, validation.Required),
		validation.Field(&o.HashCost, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&o.HashConcurrency, validation.Min(0)),
		validation.Field(&o.ContextKey, validation.Required),
	)
}

func (o Options) GetSigningKey() string {
	return o.SigningKey
}

func (o Options) GetContextKey() string {
	if o.ContextKey == "" {
		return DefaultContextKey
	}
	return o.ContextKey
}

func (o Options) GetTokenTTL() time.Duration {
	return o.TokenTTL
}

func (o Options) GetTokenLookup() string {
	return o.TokenLookup
}

func (o Options) GetAuthScheme() string {
	return o.AuthScheme
}

func (o Options) GetIssuer() string {
	return o.Issuer
}

func (o Options) GetAudience() []string {
	return o.Audience
}

func (o Options) GetDSN() string {
	return o.DSN
}

func (o Options) GetDebug() bool {
	return o.Debug
}

func (o Options) GetAddr() string {
	return o.Addr
}

// String hides the signing key
func (o Options) String() string {
	return fmt.Sprintf("%+v", struct {
		Issuer   string
		Audience []string
		DSN      string
		Addr     string
		TTL      time.Duration
		Debug    bool
	}{o.Issuer, o.Audience, o.DSN, o.Addr, o.TokenTTL, o.Debug})
}
