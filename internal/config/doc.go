// Package config loads and validates the labforge daemon configuration.
//
// Configuration lives in a single config.yaml under the labforge config
// root (~/.config/labforge by default). Loading starts from the built-in
// defaults and overlays whatever the file sets, so a partial file only
// overrides the keys it names. A missing file is not an error; a malformed
// or invalid one is.
//
// Durations use Go duration syntax ("2s", "5m", "1h30m") via the Duration
// wrapper, because yaml.v3 has no native duration support.
//
// Validation collects every problem instead of stopping at the first, so an
// operator fixing a config file sees the whole list at once.
package config
