// Package config holds the resolver configuration and the layering that
// produces it: built-in defaults, an optional HCL config file under the infs
// home directory, then environment overrides.
package config
