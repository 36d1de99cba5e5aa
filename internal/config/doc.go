// Package config provides configuration structures and utilities for webconv.
// It defines the options of a conversion run, the per-site settings loaded
// from the YAML configuration file, and the XDG directories the tool uses.
package config
