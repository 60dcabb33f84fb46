package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable name.
const EnvPrefix = "SMARTDOOR_"

// setting binds one option to its flag and environment variable.
type setting struct {
	flag  string
	env   string
	usage string
	set   func(c *Config, v string) error
}

var settings = []setting{
	{"transport", "TRANSPORT", "Transport: ble or tcp", func(c *Config, v string) error {
		c.Transport = strings.ToLower(v)
		return nil
	}},
	{"peer", "PEERS", "Comma-separated lock addresses for the tcp transport", func(c *Config, v string) error {
		c.Peers = splitList(v)
		return nil
	}},
	{"mdns", "MDNS", "Discover locks with mDNS (tcp transport)", boolSetter(func(c *Config) *bool { return &c.Browse })},
	{"filter", "DEBUG_FILTER", "Debug: scan unfiltered and connect to names containing this", func(c *Config, v string) error {
		c.DebugFilter = v
		return nil
	}},
	{"scan-timeout", "SCAN_TIMEOUT", "Scan timeout", durationSetter(func(c *Config) *time.Duration { return &c.ScanTimeout })},
	{"step-timeout", "STEP_TIMEOUT", "Per-step timeout (negative disables)", durationSetter(func(c *Config) *time.Duration { return &c.StepTimeout })},
	{"key-source", "KEY_SOURCE", "Key source: device or stored", func(c *Config, v string) error {
		c.KeySource = strings.ToLower(v)
		return nil
	}},
	{"digits", "DIGITS", "One-time code digits (8, or 6 for the simplified lock)", intSetter(func(c *Config) *int { return &c.Digits })},
	{"subject", "SUBJECT", "Token subject", func(c *Config, v string) error {
		c.Subject = v
		return nil
	}},
	{"token-ttl", "TOKEN_TTL", "Token lifetime", durationSetter(func(c *Config) *time.Duration { return &c.TokenTTL })},
	{"state-dir", "STATE_DIR", "Directory for the clock value and sealed secret", func(c *Config, v string) error {
		c.StateDir = v
		return nil
	}},
	{"passphrase", "PASSPHRASE", "Passphrase sealing the stored secret (default: master key file)", func(c *Config, v string) error {
		c.Passphrase = v
		return nil
	}},
	{"trace", "TRACE_FILE", "Write CBOR session traces to this file", func(c *Config, v string) error {
		c.TraceFile = v
		return nil
	}},
	{"log-level", "LOG_LEVEL", "Log level: debug, info, warn, error", func(c *Config, v string) error {
		c.LogLevel = strings.ToLower(v)
		return nil
	}},
	{"log-format", "LOG_FORMAT", "Log format: text or json", func(c *Config, v string) error {
		c.LogFormat = strings.ToLower(v)
		return nil
	}},
	{"listen", "LISTEN", "Simulator listen address", func(c *Config, v string) error {
		c.Listen = v
		return nil
	}},
	{"metrics", "METRICS_ADDR", "Simulator metrics address (empty disables)", func(c *Config, v string) error {
		c.MetricsAddr = v
		return nil
	}},
	{"name", "LOCK_NAME", "Simulator advertised name", func(c *Config, v string) error {
		c.LockName = v
		return nil
	}},
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func durationSetter(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplyEnv overlays values found through lookup, using SMARTDOOR_* names.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	for _, s := range settings {
		v, ok := lookup(EnvPrefix + s.env)
		if !ok {
			continue
		}
		if err := s.set(c, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, s.env, err))
		}
	}
	return errors.Join(errs...)
}

// EnvLookup returns a lookup that consults the process environment first
// and then the given .env files. Missing files are ignored.
func EnvLookup(dotenvFiles ...string) (func(string) (string, bool), error) {
	fileVars := map[string]string{}
	for _, name := range dotenvFiles {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			continue
		}
		vars, err := godotenv.Read(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range vars {
			if _, seen := fileVars[k]; !seen {
				fileVars[k] = v
			}
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

// Flags holds the flag set bound to the settings table.
type Flags struct {
	fs         *flag.FlagSet
	configFile *string
	values     map[string]*string
}

// RegisterFlags adds -config and one flag per setting to fs. The flag
// defaults are shown from defaults but only explicitly set flags are
// applied.
func RegisterFlags(fs *flag.FlagSet, defaults *Config) *Flags {
	f := &Flags{
		fs:         fs,
		configFile: fs.String("config", "", "YAML configuration file"),
		values:     make(map[string]*string, len(settings)),
	}
	for _, s := range settings {
		f.values[s.flag] = fs.String(s.flag, defaultString(defaults, s.flag), s.usage)
	}
	return f
}

// ConfigFile returns the -config value.
func (f *Flags) ConfigFile() string {
	return *f.configFile
}

// Apply overlays explicitly set flags onto c.
func (f *Flags) Apply(c *Config) error {
	var errs []error
	f.fs.Visit(func(fl *flag.Flag) {
		v, ok := f.values[fl.Name]
		if !ok {
			return
		}
		for _, s := range settings {
			if s.flag == fl.Name {
				if err := s.set(c, *v); err != nil {
					errs = append(errs, fmt.Errorf("-%s: %w", fl.Name, err))
				}
				return
			}
		}
	})
	return errors.Join(errs...)
}

func defaultString(c *Config, name string) string {
	if c == nil {
		return ""
	}
	switch name {
	case "transport":
		return c.Transport
	case "peer":
		return strings.Join(c.Peers, ",")
	case "mdns":
		return strconv.FormatBool(c.Browse)
	case "scan-timeout":
		return c.ScanTimeout.String()
	case "step-timeout":
		return c.StepTimeout.String()
	case "key-source":
		return c.KeySource
	case "digits":
		return strconv.Itoa(c.Digits)
	case "subject":
		return c.Subject
	case "token-ttl":
		return c.TokenTTL.String()
	case "state-dir":
		return c.StateDir
	case "log-level":
		return c.LogLevel
	case "log-format":
		return c.LogFormat
	case "listen":
		return c.Listen
	case "metrics":
		return c.MetricsAddr
	case "name":
		return c.LockName
	}
	return ""
}

// Load parses args into fs and builds the layered configuration: defaults,
// the -config YAML file, environment (with ./.env), then set flags.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()
	flags := RegisterFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if path := flags.ConfigFile(); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	lookup, err := EnvLookup(".env")
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := flags.Apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
