package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/inferara/infs/api"
	"github.com/inferara/infs/internal/config"
	"github.com/inferara/infs/internal/toolchain"
)

// toolchainFlags override the loaded configuration.
type toolchainFlags struct {
	home        string
	source      string
	manifestURL string
	cacheTTL    time.Duration
}

func (f *toolchainFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.home, "home", "", "infs home directory (default $"+config.HomeEnv+" or ~/.infs)")
	cmd.Flags().StringVar(&f.source, "source", "", "Manifest source: github, releases or static")
	cmd.Flags().StringVar(&f.manifestURL, "manifest-url", "", "Manifest URL for the releases and static sources")
	cmd.Flags().DurationVar(&f.cacheTTL, "cache-ttl", 0, "Manifest cache lifetime (e.g. 15m, 0s disables)")
}

// load builds the configuration: defaults, config.hcl, environment, then
// any flags that were set on cmd.
func (f *toolchainFlags) load(cmd *cobra.Command) (*config.Config, error) {
	lookup := os.LookupEnv
	if f.home != "" {
		lookup = func(key string) (string, bool) {
			if key == config.HomeEnv {
				return f.home, true
			}
			return os.LookupEnv(key)
		}
	}
	cfg, err := config.Load(lookup)
	if err != nil {
		return nil, err
	}
	if f.source != "" {
		k, err := config.ParseSource(f.source)
		if err != nil {
			return nil, err
		}
		cfg.Source = k
	}
	if f.manifestURL != "" {
		cfg.ManifestURL = f.manifestURL
	}
	if cmd.Flags().Changed("cache-ttl") {
		cfg.CacheTTL = f.cacheTTL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *toolchainFlags) resolver(cmd *cobra.Command) (*toolchain.Resolver, error) {
	cfg, err := f.load(cmd)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded configuration.", "home", cfg.Home, "source", cfg.Source, "manifest", cfg.ManifestLocation(), "ttl", cfg.CacheTTL)
	return toolchain.NewResolver(cfg, toolchain.WithLogger(logger))
}

func platformFlag(name string) (toolchain.Platform, error) {
	if name == "" {
		return toolchain.DetectPlatform()
	}
	p, ok := toolchain.ParsePlatform(name)
	if !ok {
		return "", fmt.Errorf("unknown platform %q: supported platforms are linux-x64, windows-x64, macos-arm64", name)
	}
	return p, nil
}

var (
	resolveFlags    toolchainFlags
	resolvePlatform string
	resolveInfs     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [version]",
	Short: "Print the download URL for a toolchain version (default latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := platformFlag(resolvePlatform)
		if err != nil {
			return err
		}
		r, err := resolveFlags.resolver(cmd)
		if err != nil {
			return err
		}

		version := toolchain.LatestAlias
		if len(args) == 1 {
			version = args[0]
		}
		var (
			resolved string
			a        api.PlatformArtifact
		)
		if resolveInfs {
			resolved, a, err = r.FetchInfsArtifact(cmd.Context(), platform)
		} else {
			resolved, a, err = r.FetchArtifact(cmd.Context(), version, platform)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "version:  %s\n", resolved)
		fmt.Fprintf(out, "platform: %s\n", a.Platform)
		fmt.Fprintf(out, "url:      %s\n", a.URL)
		if a.SHA256 != "" {
			fmt.Fprintf(out, "sha256:   %s\n", a.SHA256)
		}
		if a.Size > 0 {
			fmt.Fprintf(out, "size:     %d\n", a.Size)
		}
		return nil
	},
}

var (
	manifestFlags   toolchainFlags
	manifestQuery   string
	manifestRefresh bool
	manifestClear   bool
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Show the release manifest, optionally filtered by a JSONPath query",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := manifestFlags.resolver(cmd)
		if err != nil {
			return err
		}
		if manifestClear {
			return r.Cache().Clear()
		}

		fetch := r.FetchManifest
		if manifestRefresh {
			fetch = r.Refresh
		}
		m, err := fetch(cmd.Context())
		if err != nil {
			return err
		}

		var v any = m
		if manifestQuery != "" {
			if v, err = toolchain.QueryManifest(m, manifestQuery); err != nil {
				return err
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	},
}

var (
	downloadFlags    toolchainFlags
	downloadPlatform string
	downloadDir      string
	downloadVerify   bool
)

var downloadCmd = &cobra.Command{
	Use:   "download [version]",
	Short: "Download a toolchain archive (default latest) and verify its checksum",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := platformFlag(downloadPlatform)
		if err != nil {
			return err
		}
		r, err := downloadFlags.resolver(cmd)
		if err != nil {
			return err
		}

		version := toolchain.LatestAlias
		if len(args) == 1 {
			version = args[0]
		}
		resolved, a, err := r.FetchArtifact(cmd.Context(), version, platform)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(downloadDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", downloadDir, err)
		}
		dest := filepath.Join(downloadDir, path.Base(a.URL))

		out := cmd.OutOrStdout()
		d := toolchain.NewDownloader(nil, logger)
		d.OnProgress = func(ev toolchain.ProgressEvent) {
			switch ev.Kind {
			case toolchain.ProgressStarted:
				fmt.Fprintf(out, "Downloading infc %s for %s...\n", resolved, platform)
			case toolchain.ProgressFailed:
				logger.Warn("Download attempt failed.", "attempt", ev.Attempt, "error", ev.Err)
			case toolchain.ProgressAdvanced:
				logger.Debug("Download progress.", "bytes", ev.Downloaded, "total", ev.Total)
			}
		}
		if err := d.Download(cmd.Context(), a.URL, dest, a.Size); err != nil {
			return err
		}

		if downloadVerify {
			sum, err := r.FetchChecksum(cmd.Context(), a)
			if err != nil {
				return err
			}
			if err := toolchain.VerifyChecksum(dest, sum); err != nil {
				_ = os.Remove(dest)
				return err
			}
			fmt.Fprintf(out, "Checksum OK (%s)\n", sum)
		}
		fmt.Fprintf(out, "Saved %s\n", dest)
		return nil
	},
}

func init() {
	resolveFlags.register(resolveCmd)
	resolveCmd.Flags().StringVar(&resolvePlatform, "platform", "", "Target platform (default: host)")
	resolveCmd.Flags().BoolVar(&resolveInfs, "infs", false, "Resolve the toolchain manager artifact instead of the compiler")
	rootCmd.AddCommand(resolveCmd)

	manifestFlags.register(manifestCmd)
	manifestCmd.Flags().StringVarP(&manifestQuery, "query", "q", "", "JSONPath expression, e.g. '$.versions[*].version'")
	manifestCmd.Flags().BoolVar(&manifestRefresh, "refresh", false, "Ignore the cache and fetch the manifest")
	manifestCmd.Flags().BoolVar(&manifestClear, "clear-cache", false, "Delete the cached manifest and exit")
	rootCmd.AddCommand(manifestCmd)

	downloadFlags.register(downloadCmd)
	downloadCmd.Flags().StringVar(&downloadPlatform, "platform", "", "Target platform (default: host)")
	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", ".", "Directory to save the archive in")
	downloadCmd.Flags().BoolVar(&downloadVerify, "verify", true, "Verify the SHA-256 checksum after download")
	rootCmd.AddCommand(downloadCmd)
}
