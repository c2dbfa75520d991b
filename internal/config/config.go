package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Environment variables consulted by ApplyEnv.
const (
	HomeEnv        = "INFS_HOME"
	SourceEnv      = "INFS_MANIFEST_SOURCE"
	ManifestURLEnv = "INFS_MANIFEST_URL"
	CacheTTLEnv    = "INFS_MANIFEST_CACHE_TTL"
	RepoEnv        = "INFS_GITHUB_REPO"
	APIBaseEnv     = "INFS_GITHUB_API"
	TokenEnv       = "GITHUB_TOKEN"
)

const (
	DefaultCacheTTL = 15 * time.Minute
	DefaultTimeout  = 30 * time.Second
	DefaultAPIBase  = "https://api.github.com"

	defaultReleasesURL = "https://inference-lang.org/releases/releases.json"
	defaultStaticURL   = "https://inference-lang.org/releases/manifest.json"

	// FileName is the optional config file inside Home.
	FileName = "config.hcl"
)

// DefaultRepo is the GitHub repository releases are published to.
var DefaultRepo = Repo{Owner: "Inferara", Name: "inference"}

// SourceKind selects the manifest schema generation in use. Exactly one is
// active per configuration.
type SourceKind string

const (
	// SourceGitHub lists releases through the GitHub Releases API.
	SourceGitHub SourceKind = "github"
	// SourceReleases reads a flat releases.json array.
	SourceReleases SourceKind = "releases"
	// SourceStatic reads a structured manifest.json with required checksums.
	SourceStatic SourceKind = "static"
)

// ParseSource validates a source name.
func ParseSource(s string) (SourceKind, error) {
	switch k := SourceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case SourceGitHub, SourceReleases, SourceStatic:
		return k, nil
	}
	return "", &Error{Key: SourceEnv, Value: s, Reason: "expected one of github, releases, static"}
}

// Repo is a GitHub owner/name pair.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ParseRepo parses the "owner/repo" form.
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" {
		return Repo{}, &Error{Key: RepoEnv, Value: s, Reason: "expected 'owner/repo'"}
	}
	return Repo{Owner: owner, Name: name}, nil
}

// Error reports a configuration value that could not be parsed.
type Error struct {
	Key    string
	Value  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s value %q: %s", e.Key, e.Value, e.Reason)
}

// Config is the resolver configuration.
type Config struct {
	Home        string // cache root; the manifest cache lives in Home/cache
	Source      SourceKind
	ManifestURL string // releases and static sources; empty means the default
	CacheTTL    time.Duration
	APIBase     string
	Repo        Repo
	Token       string
	Timeout     time.Duration
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	home, err := defaultHome()
	if err != nil {
		return nil, err
	}
	return &Config{
		Home:     home,
		Source:   SourceGitHub,
		CacheTTL: DefaultCacheTTL,
		APIBase:  DefaultAPIBase,
		Repo:     DefaultRepo,
		Timeout:  DefaultTimeout,
	}, nil
}

func defaultHome() (string, error) {
	if runtime.GOOS == "windows" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine AppData directory, set %s: %w", HomeEnv, err)
		}
		return filepath.Join(dir, "infs"), nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory, set %s: %w", HomeEnv, err)
	}
	return filepath.Join(dir, ".infs"), nil
}

// LookupFunc reads an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load builds the effective configuration: defaults, then Home/config.hcl
// when present, then the environment.
func Load(lookup LookupFunc) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if home, ok := lookup(HomeEnv); ok && home != "" {
		cfg.Home = home
	}
	if err := cfg.LoadFile(filepath.Join(cfg.Home, FileName)); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. Empty values are
// ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}
	if v, ok := get(HomeEnv); ok {
		c.Home = v
	}
	if v, ok := get(SourceEnv); ok {
		k, err := ParseSource(v)
		if err != nil {
			return err
		}
		c.Source = k
	}
	if v, ok := get(ManifestURLEnv); ok {
		c.ManifestURL = v
	}
	if v, ok := get(CacheTTLEnv); ok {
		secs, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return &Error{Key: CacheTTLEnv, Value: v, Reason: "expected a number of seconds"}
		}
		c.CacheTTL = time.Duration(secs) * time.Second
	}
	if v, ok := get(RepoEnv); ok {
		r, err := ParseRepo(v)
		if err != nil {
			return err
		}
		c.Repo = r
	}
	if v, ok := get(APIBaseEnv); ok {
		c.APIBase = strings.TrimRight(v, "/")
	}
	if v, ok := get(TokenEnv); ok {
		c.Token = v
	}
	return nil
}

// Validate checks the invariants the resolver relies on.
func (c *Config) Validate() error {
	if c.Home == "" {
		return errors.New("home directory is required")
	}
	if _, err := ParseSource(string(c.Source)); err != nil {
		return err
	}
	if c.CacheTTL < 0 {
		return &Error{Key: CacheTTLEnv, Value: c.CacheTTL.String(), Reason: "must not be negative"}
	}
	if c.CacheTTL%time.Second != 0 {
		return &Error{Key: CacheTTLEnv, Value: c.CacheTTL.String(), Reason: "must be a whole number of seconds"}
	}
	if c.Timeout <= 0 {
		return &Error{Key: "timeout", Value: c.Timeout.String(), Reason: "must be positive"}
	}
	if c.Source == SourceGitHub && (c.Repo.Owner == "" || c.Repo.Name == "") {
		return &Error{Key: RepoEnv, Value: c.Repo.String(), Reason: "expected 'owner/repo'"}
	}
	return nil
}

// ManifestLocation returns the URL the active source fetches.
func (c *Config) ManifestLocation() string {
	switch c.Source {
	case SourceReleases:
		if c.ManifestURL != "" {
			return c.ManifestURL
		}
		return defaultReleasesURL
	case SourceStatic:
		if c.ManifestURL != "" {
			return c.ManifestURL
		}
		return defaultStaticURL
	default:
		return fmt.Sprintf("%s/repos/%s/%s/releases", c.APIBase, c.Repo.Owner, c.Repo.Name)
	}
}
