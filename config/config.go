// Package config loads and validates the on-disk configuration for the
// fragvault engine and CLI: which backend to store resources on, how large
// fragments and resources should be, and which codecs to apply by default.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Config holds the tunable parameters of an engine instance. Every field
// has a corresponding "key = value" line in the on-disk config file.
type Config struct {
	DataDir string // catalog + default filesystem-backend root

	Backend     string // "memory", "filesystem", "smb", or "s3"
	BackendDir  string // root directory when Backend == "filesystem"
	S3Endpoint  string // host:port when Backend == "s3"
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseTLS    bool

	SMBAddress  string // host:port when Backend == "smb", usually port 445
	SMBUser     string
	SMBPassword string
	SMBDomain   string
	SMBShare    string
	SMBDir      string // optional directory inside the share

	FragmentSize            int64 // bytes per fragment before the final short chunk
	TargetResourceSize      int64 // builder flushes once accumulated size reaches this
	MaxFragmentsPerResource int   // builder flushes once fragment count reaches this

	// DefragmentThreshold is the number of distinct resources a live
	// compound's fragments may span before `clean -df` rewrites it into
	// fresh, well-packed resources.
	DefragmentThreshold int

	Wrapper    string // "png", "svg", or "identity"
	Compressor string // "none", "gzip", "lzw", or "zstd"

	LogLevel string
	LogFile  string
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		DataDir:                 DefaultDataDir(),
		Backend:                 "filesystem",
		BackendDir:              filepath.Join(DefaultDataDir(), "resources"),
		S3UseTLS:                true,
		FragmentSize:            1 << 20,  // 1 MiB
		TargetResourceSize:      32 << 20, // 32 MiB
		MaxFragmentsPerResource: 256,
		DefragmentThreshold:     8,
		Wrapper:                 "png",
		Compressor:              "zstd",
		LogLevel:                "info",
		LogFile:                 "",
	}
}

// DefaultDataDir returns "~/.fragvault", falling back to "./.fragvault" if
// the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".fragvault"
	}
	return filepath.Join(home, ".fragvault")
}

// ConfigPath returns the path of the config file inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(filepath.Clean(dataDir), "config")
}

// configFields maps config keys to getter/setter pairs, used by both
// LoadConfig and SaveConfig so the two stay in lockstep.
type configField struct {
	key string
	get func(*Config) string
	set func(*Config, string)
}

var configFields = []configField{
	{"datadir", func(c *Config) string { return c.DataDir }, func(c *Config, v string) { c.DataDir = v }},
	{"backend", func(c *Config) string { return c.Backend }, func(c *Config, v string) { c.Backend = v }},
	{"backenddir", func(c *Config) string { return c.BackendDir }, func(c *Config, v string) { c.BackendDir = v }},
	{"s3endpoint", func(c *Config) string { return c.S3Endpoint }, func(c *Config, v string) { c.S3Endpoint = v }},
	{"s3bucket", func(c *Config) string { return c.S3Bucket }, func(c *Config, v string) { c.S3Bucket = v }},
	{"s3accesskey", func(c *Config) string { return c.S3AccessKey }, func(c *Config, v string) { c.S3AccessKey = v }},
	{"s3secretkey", func(c *Config) string { return c.S3SecretKey }, func(c *Config, v string) { c.S3SecretKey = v }},
	{"s3usetls", func(c *Config) string { return boolStr(c.S3UseTLS) }, func(c *Config, v string) { c.S3UseTLS = v == "true" }},
	{"smbaddress", func(c *Config) string { return c.SMBAddress }, func(c *Config, v string) { c.SMBAddress = v }},
	{"smbuser", func(c *Config) string { return c.SMBUser }, func(c *Config, v string) { c.SMBUser = v }},
	{"smbpassword", func(c *Config) string { return c.SMBPassword }, func(c *Config, v string) { c.SMBPassword = v }},
	{"smbdomain", func(c *Config) string { return c.SMBDomain }, func(c *Config, v string) { c.SMBDomain = v }},
	{"smbshare", func(c *Config) string { return c.SMBShare }, func(c *Config, v string) { c.SMBShare = v }},
	{"smbdir", func(c *Config) string { return c.SMBDir }, func(c *Config, v string) { c.SMBDir = v }},
	{"fragmentsize", func(c *Config) string { return fmt.Sprintf("%d", c.FragmentSize) }, func(c *Config, v string) { c.FragmentSize = atoi64(v) }},
	{"targetresourcesize", func(c *Config) string { return fmt.Sprintf("%d", c.TargetResourceSize) }, func(c *Config, v string) { c.TargetResourceSize = atoi64(v) }},
	{"maxfragmentsperresource", func(c *Config) string { return fmt.Sprintf("%d", c.MaxFragmentsPerResource) }, func(c *Config, v string) { c.MaxFragmentsPerResource = int(atoi64(v)) }},
	{"defragmentthreshold", func(c *Config) string { return fmt.Sprintf("%d", c.DefragmentThreshold) }, func(c *Config, v string) { c.DefragmentThreshold = int(atoi64(v)) }},
	{"wrapper", func(c *Config) string { return c.Wrapper }, func(c *Config, v string) { c.Wrapper = v }},
	{"compressor", func(c *Config) string { return c.Compressor }, func(c *Config, v string) { c.Compressor = v }},
	{"loglevel", func(c *Config) string { return c.LogLevel }, func(c *Config, v string) { c.LogLevel = v }},
	{"logfile", func(c *Config) string { return c.LogFile }, func(c *Config, v string) { c.LogFile = v }},
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func atoi64(s string) int64 {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int64(r-'0')
	}
	return n
}

// LoadConfig reads a "key = value" config file, applying values on top of
// DefaultConfig. Blank lines and lines starting with '#' are ignored.
// Unknown keys are ignored so older config files keep working across
// releases that add new fields.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ErrConfigNotFound
		}
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	setters := make(map[string]func(*Config, string), len(configFields))
	for _, f := range configFields {
		setters[f.key] = f.set
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return Config{}, fmt.Errorf("%w: %q", ErrInvalidConfigLine, line)
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		if set, ok := setters[key]; ok {
			set(&cfg, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path as "key = value" lines, creating parent
// directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# FragVault Configuration\n")
	keys := make([]string, 0, len(configFields))
	fieldByKey := make(map[string]configField, len(configFields))
	for _, f := range configFields {
		keys = append(keys, f.key)
		fieldByKey[f.key] = f
	}
	sort.Strings(keys)
	for _, k := range keys {
		f := fieldByKey[k]
		fmt.Fprintf(&b, "%s = %s\n", f.key, f.get(&cfg))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
