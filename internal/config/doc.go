// Package config locates the ATLAS API config file used by the CLI.
//
// # Resolution Order
//
//  1. The -config flag, when given
//  2. $ATLAS_API_CONFIG, when set and non-empty
//  3. ~/.config/atlasapi/config.yaml
//
// # File Format
//
// The file itself is read by atlas.LoadConfig. Example config.yaml:
//
//	token: 0123456789abcdef0123456789abcdef01234567
//	base_url: https://atlas.example.org/api/
//	retry_max: 3
//
// Files ending in .toml are read as TOML with the same keys.
//
// # Path Expansion
//
//   - Absolute paths: Used as-is
//   - Tilde paths: Expanded to home directory ("~/.config/atlasapi")
//   - Relative paths: Converted to absolute based on current directory
//
// Unlike prefs, a missing config file is an error; there is no usable default
// token.
package config
