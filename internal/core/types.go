package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Status is the verdict of a single (platform, handle) check.
type Status string

const (
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
	StatusUnknown   Status = "unknown"
	StatusInvalid   Status = "invalid"
	StatusError     Status = "error"
)

// HandlePlaceholder is the token substituted into profile URL templates.
const HandlePlaceholder = "{handle}"

// PlatformDefinition describes one platform's probe configuration.
type PlatformDefinition struct {
	Key                string `json:"key" yaml:"key"`
	Name               string `json:"name" yaml:"name"`
	BaseURL            string `json:"baseUrl" yaml:"base_url"`
	ProfileURLTemplate string `json:"profileUrlTemplate" yaml:"profile_url_template"`
	HandleRegex        string `json:"handleRegex,omitempty" yaml:"handle_regex,omitempty"`
	SortOrder          int    `json:"sortOrder" yaml:"sort_order"`
}

// ProfileURL substitutes the handle into the platform's URL template.
func (d PlatformDefinition) ProfileURL(handle string) string {
	return strings.ReplaceAll(d.ProfileURLTemplate, HandlePlaceholder, handle)
}

// ResolvedPlatform is a definition resolved through the platform directory,
// optionally carrying the durable store's row id.
type ResolvedPlatform struct {
	PlatformDefinition

	// PlatformID is the durable store id, or 0 when the platform only
	// exists in the built-in catalog.
	PlatformID int64 `json:"platformId,omitempty"`
}

// AdapterCheckResult is the immutable outcome of one probe.
type AdapterCheckResult struct {
	Status       Status    `json:"status"`
	ProfileURL   string    `json:"profileUrl,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	ResponseMs   int64     `json:"responseMs,omitempty"`
	CheckedAt    time.Time `json:"checkedAt"`
	Cached       bool      `json:"cached,omitempty"`
}

// PlatformCheckResult is the API-facing projection of one check.
type PlatformCheckResult struct {
	PlatformID   int64     `json:"platformId,omitempty"`
	PlatformKey  string    `json:"platformKey"`
	PlatformName string    `json:"platformName"`
	Status       Status    `json:"status"`
	CheckedAt    time.Time `json:"checkedAt"`
	ProfileURL   string    `json:"profileUrl,omitempty"`
	ResponseMs   int64     `json:"responseMs,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Cached       bool      `json:"cached,omitempty"`
	Suggestions  []string  `json:"suggestions,omitempty"`
}

// HandleCheckResponse aggregates one handle's results across platforms.
// Results follow the caller's platform key order.
type HandleCheckResponse struct {
	Handle      string                 `json:"handle"`
	RequestedAt time.Time              `json:"requestedAt"`
	Results     []*PlatformCheckResult `json:"results"`
}

// BulkHandleCheckResponse aggregates results for several handles, in the
// caller's handle order.
type BulkHandleCheckResponse struct {
	Handles     []string               `json:"handles"`
	RequestedAt time.Time              `json:"requestedAt"`
	Results     []*HandleCheckResponse `json:"results"`
}

const maxHandleLength = 64

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateHandle enforces the global handle shape: trimmed, 1-64 characters
// from [A-Za-z0-9_.-]. Returns the trimmed handle.
func ValidateHandle(handle string) (string, error) {
	trimmed := strings.TrimSpace(handle)
	if trimmed == "" {
		return "", fmt.Errorf("handle is required")
	}
	if len(trimmed) > maxHandleLength {
		return "", fmt.Errorf("handle exceeds %d characters", maxHandleLength)
	}
	if !handlePattern.MatchString(trimmed) {
		return "", fmt.Errorf("handle may only contain letters, digits, '_', '.' and '-'")
	}
	return trimmed, nil
}
