package config

import "maps"

// SiteConfig holds settings for a single host.
// Depth and RenderJavaScript are pointers so that an explicit zero or
// false in the file can be told apart from a missing key.
type SiteConfig struct {
	// Cookie is sent as the Cookie header, e.g. "a=1; b=2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers, such as Authorization.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth replaces --depth for runs starting on this host.
	Depth *int `yaml:"depth,omitempty"`

	// RenderJavaScript replaces --js for runs starting on this host.
	RenderJavaScript *bool `yaml:"js,omitempty"`

	// IgnorePatterns are glob patterns on the URL path; matching links
	// are not followed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict link following to matching URL paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// merge returns c with every setting present in override applied on top.
// Headers are merged key by key; the other fields are replaced.
func (c SiteConfig) merge(override SiteConfig) SiteConfig {
	out := c
	out.Headers = maps.Clone(c.Headers)

	if override.Cookie != "" {
		out.Cookie = override.Cookie
	}
	if override.Depth != nil {
		out.Depth = override.Depth
	}
	if override.RenderJavaScript != nil {
		out.RenderJavaScript = override.RenderJavaScript
	}
	if len(override.Headers) > 0 {
		if out.Headers == nil {
			out.Headers = make(map[string]string, len(override.Headers))
		}
		maps.Copy(out.Headers, override.Headers)
	}
	if len(override.IgnorePatterns) > 0 {
		out.IgnorePatterns = override.IgnorePatterns
	}
	if len(override.FollowPatterns) > 0 {
		out.FollowPatterns = override.FollowPatterns
	}
	return out
}

// File is the parsed .webconv configuration file.
type File struct {
	// Sites maps a host ("docs.example.com" or "localhost:8080") to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host and are overridden by Sites entries.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// NewFile returns an empty configuration file.
func NewFile() *File {
	return &File{Sites: make(map[string]SiteConfig)}
}

// GetSiteConfig returns the settings for host: the defaults with the
// host's own entry merged on top. The result shares no header map with cf.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	site, ok := cf.Sites[host]
	if !ok {
		return cf.Defaults.merge(SiteConfig{})
	}
	return cf.Defaults.merge(site)
}
