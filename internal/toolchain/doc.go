// Package toolchain resolves which release artifact to fetch for a platform.
//
// A Resolver reads the release manifest from the configured source (the
// GitHub Releases API, a flat releases.json or a static manifest.json),
// keeps a time-boxed copy in <home>/cache/manifest.json, and selects the
// requested (or newest stable) version and the artifact built for the
// caller's platform. Downloader fetches the artifact bytes with bounded
// retries.
package toolchain
