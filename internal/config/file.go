package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// fileConfig mirrors the attributes accepted in config.hcl. Every attribute
// is optional; absent attributes leave the current value untouched.
type fileConfig struct {
	Home        *string `hcl:"home,optional"`
	Source      *string `hcl:"source,optional"`
	ManifestURL *string `hcl:"manifest_url,optional"`
	CacheTTL    *int    `hcl:"cache_ttl,optional"`
	GitHubRepo  *string `hcl:"github_repo,optional"`
	GitHubAPI   *string `hcl:"github_api,optional"`
	GitHubToken *string `hcl:"github_token,optional"`
	Timeout     *string `hcl:"timeout,optional"`
}

// LoadFile overlays the HCL config file at path onto c. A missing file is
// not an error.
func (c *Config) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return c.decode(src, path)
}

func (c *Config) decode(src []byte, filename string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}

	if fc.Home != nil {
		c.Home = *fc.Home
	}
	if fc.Source != nil {
		k, err := ParseSource(*fc.Source)
		if err != nil {
			return err
		}
		c.Source = k
	}
	if fc.ManifestURL != nil {
		c.ManifestURL = *fc.ManifestURL
	}
	if fc.CacheTTL != nil {
		if *fc.CacheTTL < 0 {
			return &Error{Key: "cache_ttl", Value: fmt.Sprint(*fc.CacheTTL), Reason: "must not be negative"}
		}
		c.CacheTTL = time.Duration(*fc.CacheTTL) * time.Second
	}
	if fc.GitHubRepo != nil {
		r, err := ParseRepo(*fc.GitHubRepo)
		if err != nil {
			return err
		}
		c.Repo = r
	}
	if fc.GitHubAPI != nil {
		c.APIBase = strings.TrimRight(*fc.GitHubAPI, "/")
	}
	if fc.GitHubToken != nil {
		c.Token = *fc.GitHubToken
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return &Error{Key: "timeout", Value: *fc.Timeout, Reason: "expected a duration such as 30s"}
		}
		c.Timeout = d
	}
	return nil
}
