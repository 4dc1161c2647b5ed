package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds auth options
type Config struct {
	// Driver selects the registered credential driver
	Driver string     `yaml:"driver" json:"driver"`
	Hash   HashConfig `yaml:"hash" json:"hash"`
	// LifetimeSeconds is the autologin token lifetime
	LifetimeSeconds int `yaml:"lifetimeseconds" json:"lifetimeseconds"`
	// AutologinKey signs remember me tokens. Empty disables autologin unless
	// tokens are passed with WithAutologin.
	AutologinKey string `yaml:"autologin_key" json:"-"`
	// Lifetime is the session lifetime, surfaced to session stores
	Lifetime Duration `yaml:"lifetime" json:"lifetime"`
	// MaxFailedLogins set to 0 disables the login jail
	MaxFailedLogins int               `yaml:"max_failed_logins" json:"max_failed_logins"`
	LoginJailTime   Duration          `yaml:"login_jail_time" json:"login_jail_time"`
	Session         SessionConfig     `yaml:"session" json:"session"`
	Users           map[string]string `yaml:"users" json:"users"`
	OAuth2          OAuthConfig       `yaml:"oauth2" json:"oauth2"`

	// Registration knobs are carried for callers, the core never reads them
	Registration RegistrationConfig `yaml:",inline" json:"registration"`
}

// HashConfig selects the keyed hash used for passwords
type HashConfig struct {
	Method string `yaml:"method" json:"method"`
	Key    string `yaml:"key" json:"-"`
}

// SessionConfig names the session backend and the principal key
type SessionConfig struct {
	Type string `yaml:"type" json:"type"`
	Key  string `yaml:"key" json:"key"`
}

// ProviderKey is the session key holding the OAuth provider used at login
func (s SessionConfig) ProviderKey() string {
	return s.Key + "_provider"
}

// OAuthConfig lists the OAuth2 providers known to the registry
type OAuthConfig struct {
	Active bool `yaml:"active" json:"active"`
	// CallbackURL is a template with {provider} and {action} placeholders
	CallbackURL string           `yaml:"callback_url" json:"callback_url"`
	Providers   []ProviderConfig `yaml:"providers" json:"providers"`
}

// ProviderConfig is a single OAuth2 provider entry
type ProviderConfig struct {
	Name    string `yaml:"name" json:"name"`
	Enabled bool   `yaml:"enable" json:"enable"`
	Icon    string `yaml:"icon" json:"icon,omitempty"`
}

type RegistrationConfig struct {
	Register    bool           `yaml:"register" json:"register"`
	Username    bool           `yaml:"username" json:"username"`
	Password    PasswordPolicy `yaml:"password" json:"password"`
	Name        NamePolicy     `yaml:"name" json:"name"`
	ConfirmPass bool           `yaml:"confirm_pass" json:"confirm_pass"`
	UseNick     bool           `yaml:"use_nick" json:"use_nick"`
	UseCaptcha  bool           `yaml:"use_captcha" json:"use_captcha"`
	EnableBuddy bool           `yaml:"enable_buddy" json:"enable_buddy"`
}

type PasswordPolicy struct {
	LengthMin int `yaml:"length_min" json:"length_min"`
}

type NamePolicy struct {
	Chars     string `yaml:"chars" json:"chars"`
	LengthMin int    `yaml:"length_min" json:"length_min"`
	LengthMax int    `yaml:"length_max" json:"length_max"`
}

const (
	DefaultSessionKey      = "auth_user"
	DefaultSessionType     = "native"
	DefaultMaxFailedLogins = 5
	DefaultLifetimeSeconds = 43200
	DefaultCallbackURL     = "/oauth2/{provider}/{action}"
)

// DefaultConfig returns the configuration used when nothing is overridden.
// The hash key is intentionally left empty.
func DefaultConfig() Config {
	return Config{
		Driver: DriverFile,
		Hash: HashConfig{
			Method: DefaultHashMethod,
		},
		LifetimeSeconds: DefaultLifetimeSeconds,
		Lifetime:        Duration(12 * time.Hour),
		MaxFailedLogins: DefaultMaxFailedLogins,
		LoginJailTime:   Duration(15 * time.Minute),
		Session: SessionConfig{
			Type: DefaultSessionType,
			Key:  DefaultSessionKey,
		},
		Users: map[string]string{},
		OAuth2: OAuthConfig{
			CallbackURL: DefaultCallbackURL,
		},
		Registration: RegistrationConfig{
			Register:    true,
			Username:    true,
			Password:    PasswordPolicy{LengthMin: 4},
			Name:        NamePolicy{Chars: `a-zA-Z0-9_\-\^\.`, LengthMin: 4, LengthMax: 32},
			ConfirmPass: true,
		},
	}
}

// AutologinLifetime is LifetimeSeconds as a duration
func (c Config) AutologinLifetime() time.Duration {
	return time.Duration(c.LifetimeSeconds) * time.Second
}

// Validate checks the configuration. A missing hash key is not reported
// here, hashing fails on first use instead.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required),
		validation.Field(&c.Hash, validation.By(func(value interface{}) error {
			hc, _ := value.(HashConfig)
			if _, ok := hashMethods[strings.ToLower(strings.TrimSpace(hc.Method))]; !ok && hc.Method != "" {
				return fmt.Errorf("unsupported hash method %q", hc.Method)
			}
			return nil
		})),
		validation.Field(&c.LifetimeSeconds, validation.Min(0)),
		validation.Field(&c.MaxFailedLogins, validation.Min(0)),
		validation.Field(&c.LoginJailTime, validation.By(func(value interface{}) error {
			d, _ := value.(Duration)
			if c.MaxFailedLogins > 0 && d <= 0 {
				return fmt.Errorf("must be positive when max_failed_logins is set")
			}
			return nil
		})),
		validation.Field(&c.Session, validation.By(func(value interface{}) error {
			sc, _ := value.(SessionConfig)
			if strings.TrimSpace(sc.Key) == "" {
				return fmt.Errorf("key is required")
			}
			return nil
		})),
		validation.Field(&c.OAuth2, validation.By(func(value interface{}) error {
			oc, _ := value.(OAuthConfig)
			seen := map[string]bool{}
			for i, p := range oc.Providers {
				if strings.TrimSpace(p.Name) == "" {
					return fmt.Errorf("provider %d has no name", i)
				}
				if seen[p.Name] {
					return fmt.Errorf("provider %q is listed twice", p.Name)
				}
				seen[p.Name] = true
			}
			return nil
		})),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, ErrInvalidConfig.Message).
			WithTextCode(TextCodeInvalidConfig)
	}
	return nil
}

// LoadConfig reads a YAML file on top of DefaultConfig. Any envFiles are
// loaded with godotenv first, then AUTH_* variables override file values.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	cfg := DefaultConfig()

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return cfg, errors.Wrap(err, errors.CategoryInternal, "failed to load env files").
				WithTextCode(TextCodeInvalidConfig)
		}
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, errors.CategoryInternal, "failed to read auth config").
				WithTextCode(TextCodeInvalidConfig)
		}
		if err := ParseConfig(raw, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// ParseConfig decodes YAML into cfg, keeping values the document omits
func ParseConfig(raw []byte, cfg *Config) error {
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to parse auth config").
			WithTextCode(TextCodeInvalidConfig)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("AUTH_DRIVER"); ok {
		c.Driver = v
	}
	if v, ok := lookup("AUTH_HASH_METHOD"); ok {
		c.Hash.Method = v
	}
	if v, ok := lookup("AUTH_HASH_KEY"); ok {
		c.Hash.Key = v
	}
	if v, ok := lookup("AUTH_AUTOLOGIN_KEY"); ok {
		c.AutologinKey = v
	}
	if v, ok := lookup("AUTH_SESSION_KEY"); ok {
		c.Session.Key = v
	}
	if v, ok := lookup("AUTH_MAX_FAILED_LOGINS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "invalid AUTH_MAX_FAILED_LOGINS").
				WithTextCode(TextCodeInvalidConfig)
		}
		c.MaxFailedLogins = n
	}
	if v, ok := lookup("AUTH_LOGIN_JAIL_TIME"); ok {
		d, err := ParseLifetime(v)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "invalid AUTH_LOGIN_JAIL_TIME").
				WithTextCode(TextCodeInvalidConfig)
		}
		c.LoginJailTime = Duration(d)
	}
	return nil
}

// Duration accepts Go durations ("15m"), plain seconds (900) and phrases
// such as "15 minutes" or "2 weeks".
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseLifetime(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

var lifetimeUnits = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// ParseLifetime parses the duration formats accepted by Duration
func ParseLifetime(value string) (time.Duration, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return 0, nil
	}

	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}

	fields := strings.Fields(value)
	if len(fields) == 0 || len(fields)%2 != 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}

	var total time.Duration
	for i := 0; i < len(fields); i += 2 {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		unit, ok := lifetimeUnits[fields[i+1]]
		if !ok {
			return 0, fmt.Errorf("invalid duration unit %q", fields[i+1])
		}
		total += time.Duration(n) * unit
	}

	return total, nil
}

// IsWithinThresholdPeriod reports whether t happened less than window ago
func IsWithinThresholdPeriod(t time.Time, window time.Duration, now time.Time) bool {
	return t.After(now.Add(-window))
}
