package config

import (
	"os"
	"strings"
	"time"
)

// Composition limits enforced by the composer core. These are product
// constants, not tunables: clients validate against the same values.
const (
	// MaxSlides is the maximum number of slides in a carousel post
	MaxSlides = 12

	// MaxFileBytes is the per-file upload ceiling (10 MiB)
	MaxFileBytes = 10 << 20

	// MaxCaptionLength is the post-level caption limit
	MaxCaptionLength = 2200

	// MaxSlideCaptionLength is the per-slide caption limit in the carousel flow
	MaxSlideCaptionLength = 500

	// MaxAltTextLength is the per-slide alt text limit
	MaxAltTextLength = 500

	// MaxLocationLength is the location string limit
	MaxLocationLength = 100

	// MaxTags is the maximum number of tags on a post
	MaxTags = 5

	// MaxTaggedUsers is the maximum number of tagged users on a post
	MaxTaggedUsers = 10

	// DraftInterval is how often an active session is checkpointed
	DraftInterval = 30 * time.Second
)

// AllowedMIMETypes is the raster set accepted for slide uploads
var AllowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// IsAllowedMIMEType reports whether mimeType is an accepted slide format
func IsAllowedMIMEType(mimeType string) bool {
	return AllowedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))]
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
