package sendfile

import (
	"fmt"
	"math"
	"mime"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DotfilesPolicy controls how path segments starting with "." are treated.
type DotfilesPolicy string

const (
	// DotfilesUnset keeps the legacy behaviour: only the final segment is
	// checked and Hidden decides between allow and ignore.
	DotfilesUnset  DotfilesPolicy = ""
	DotfilesAllow  DotfilesPolicy = "allow"
	DotfilesDeny   DotfilesPolicy = "deny"
	DotfilesIgnore DotfilesPolicy = "ignore"
)

func (p DotfilesPolicy) IsValid() bool {
	switch p {
	case DotfilesUnset, DotfilesAllow, DotfilesDeny, DotfilesIgnore:
		return true
	default:
		return false
	}
}

// ParseDotfiles validates a dotfiles policy name.
func ParseDotfiles(s string) (DotfilesPolicy, error) {
	p := DotfilesPolicy(s)
	if !p.IsValid() {
		return "", &ConfigError{Option: "dotfiles", Value: s, Reason: `must be "allow", "deny" or "ignore"`}
	}
	return p, nil
}

const defaultIndex = "index.html"

// IndexOption lists the index files tried for a directory request. The
// zero value means the default "index.html".
type IndexOption struct {
	names    []string
	disabled bool
}

// Index returns an IndexOption trying names in order. No names disables
// index resolution.
func Index(names ...string) IndexOption {
	if len(names) == 0 {
		return NoIndex()
	}
	return IndexOption{names: append([]string(nil), names...)}
}

// NoIndex disables index resolution.
func NoIndex() IndexOption {
	return IndexOption{disabled: true}
}

// Names returns the index file names in the order they are tried.
func (o IndexOption) Names() []string {
	if o.disabled {
		return nil
	}
	if o.names == nil {
		return []string{defaultIndex}
	}
	return o.names
}

// ParseIndexOption converts a loosely typed value (false, a string, or a
// list of strings) into an IndexOption. nil selects the default.
func ParseIndexOption(v any) (IndexOption, error) {
	if v == nil {
		return IndexOption{}, nil
	}
	names, enabled, err := parseNameList("index", v)
	if err != nil {
		return IndexOption{}, err
	}
	if !enabled {
		return NoIndex(), nil
	}
	return Index(names...), nil
}

// ExtensionsOption lists extensions tried when a requested file does not
// exist. The zero value disables the fallback.
type ExtensionsOption struct {
	exts []string
}

// Extensions returns an ExtensionsOption trying exts in order. A leading
// "." on an extension is ignored.
func Extensions(exts ...string) ExtensionsOption {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		out = append(out, strings.TrimPrefix(e, "."))
	}
	return ExtensionsOption{exts: out}
}

// List returns the extensions in the order they are tried.
func (o ExtensionsOption) List() []string {
	return o.exts
}

// ParseExtensionsOption converts false, a string, or a list of strings
// into an ExtensionsOption. nil disables the fallback.
func ParseExtensionsOption(v any) (ExtensionsOption, error) {
	if v == nil {
		return ExtensionsOption{}, nil
	}
	exts, enabled, err := parseNameList("extensions", v)
	if err != nil {
		return ExtensionsOption{}, err
	}
	if !enabled {
		return ExtensionsOption{}, nil
	}
	return Extensions(exts...), nil
}

// parseNameList accepts false, a string or a list of strings. The string
// "false" is treated as false so the value can come from an environment
// variable.
func parseNameList(option string, v any) ([]string, bool, error) {
	invalid := &ConfigError{Option: option, Value: v, Reason: "must be false, a string, or a list of strings"}

	switch val := v.(type) {
	case bool:
		if val {
			return nil, false, invalid
		}
		return nil, false, nil
	case string:
		if val == "" || val == "false" {
			return nil, false, nil
		}
		return []string{val}, true, nil
	case []string:
		return val, true, nil
	case []any:
		names := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false, invalid
			}
			names = append(names, s)
		}
		return names, true, nil
	default:
		return nil, false, invalid
	}
}

// MaxMaxAge is the largest max-age advertised in Cache-Control.
const MaxMaxAge = 365 * 24 * time.Hour

var maxAgePattern = regexp.MustCompile(`(?i)^(-?(?:\d+)?\.?\d+) *(milliseconds?|msecs?|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w|years?|yrs?|y)?$`)

// ParseMaxAge converts a max-age value into a duration. Numbers are
// milliseconds; strings may carry a unit such as "30d", "1h" or "2y".
// Infinite or overflowing values become MaxMaxAge.
func ParseMaxAge(v any) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return val, nil
	case int:
		return millis(float64(val)), nil
	case int32:
		return millis(float64(val)), nil
	case int64:
		return millis(float64(val)), nil
	case uint:
		return millis(float64(val)), nil
	case uint32:
		return millis(float64(val)), nil
	case uint64:
		return millis(float64(val)), nil
	case float32:
		return millis(float64(val)), nil
	case float64:
		return millis(val), nil
	case string:
		return parseMaxAgeString(val)
	default:
		return 0, &ConfigError{Option: "maxAge", Value: v, Reason: "must be a number of milliseconds or a duration string"}
	}
}

func parseMaxAgeString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	m := maxAgePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, &ConfigError{Option: "maxAge", Value: s, Reason: "is not a valid duration"}
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &ConfigError{Option: "maxAge", Value: s, Reason: fmt.Sprintf("is not a valid duration: %v", err)}
	}

	unit := float64(time.Millisecond)
	switch strings.ToLower(m[2]) {
	case "years", "year", "yrs", "yr", "y":
		unit = float64(365.25 * 24 * float64(time.Hour))
	case "weeks", "week", "w":
		unit = float64(7 * 24 * time.Hour)
	case "days", "day", "d":
		unit = float64(24 * time.Hour)
	case "hours", "hour", "hrs", "hr", "h":
		unit = float64(time.Hour)
	case "minutes", "minute", "mins", "min", "m":
		unit = float64(time.Minute)
	case "seconds", "second", "secs", "sec", "s":
		unit = float64(time.Second)
	}
	return clampDuration(n * unit), nil
}

func millis(ms float64) time.Duration {
	return clampDuration(ms * float64(time.Millisecond))
}

func clampDuration(ns float64) time.Duration {
	if math.IsNaN(ns) || ns <= 0 {
		return 0
	}
	if math.IsInf(ns, 1) || ns >= float64(math.MaxInt64) {
		return MaxMaxAge
	}
	return time.Duration(ns)
}

// MIMELookup maps a file extension, including the leading dot, to a
// content type. It returns "" for unknown extensions.
type MIMELookup func(ext string) string

// DefaultContentType is used when the MIME lookup has no entry for a
// file. An empty value omits Content-Type for such files.
//
// It is process-wide and read on every request without synchronisation:
// change it only while no requests are in flight.
var DefaultContentType = "application/octet-stream"

// Options configures a Sender.
type Options struct {
	// Root confines every served path to this directory. Without a root
	// the request path is used as a filesystem path and ".." is rejected.
	Root string

	Dotfiles DotfilesPolicy
	// Hidden allows dotfiles when Dotfiles is unset.
	Hidden bool

	Index      IndexOption
	Extensions ExtensionsOption

	ETag         bool
	LastModified bool
	CacheControl bool
	AcceptRanges bool

	MaxAge    time.Duration
	Immutable bool

	// Start and End bound the servable part of every file. End is
	// inclusive and clamped to the file size.
	Start int64
	End   *int64

	// MIME defaults to mime.TypeByExtension.
	MIME MIMELookup

	Hooks Hooks
}

// DefaultOptions returns options with ETag, Last-Modified, Cache-Control
// and Accept-Ranges enabled and "index.html" as the index file.
func DefaultOptions() Options {
	return Options{
		ETag:         true,
		LastModified: true,
		CacheControl: true,
		AcceptRanges: true,
	}
}

// Validate checks option values that cannot be enforced by their types.
func (o *Options) Validate() error {
	if !o.Dotfiles.IsValid() {
		return &ConfigError{Option: "dotfiles", Value: string(o.Dotfiles), Reason: `must be "allow", "deny" or "ignore"`}
	}
	if o.Start < 0 {
		return &ConfigError{Option: "start", Value: o.Start, Reason: "must not be negative"}
	}
	if o.End != nil && *o.End < o.Start {
		return &ConfigError{Option: "end", Value: *o.End, Reason: "must not be before start"}
	}
	if o.MaxAge < 0 {
		return &ConfigError{Option: "maxAge", Value: o.MaxAge, Reason: "must not be negative"}
	}
	return nil
}

func (o *Options) lookupType(ext string) string {
	if o.MIME != nil {
		return o.MIME(ext)
	}
	return mime.TypeByExtension(ext)
}
