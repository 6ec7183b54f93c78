// Package redactor matches configured regular-expression patterns
// against file content and substitutes placeholders (spec §4.7).
package redactor

import (
	"os"
	"regexp"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"pathindex/internal/cache"
)

// ErrPatternInvalid is returned when a pattern's regex fails to compile.
var ErrPatternInvalid = errors.New("pattern_invalid")

// Pattern is a single redaction rule.
type Pattern struct {
	ID          string
	Name        string
	Regex       string
	Placeholder string
	Enabled     bool
	Builtin     bool

	compiled *regexp.Regexp
}

// MatchSpan is a half-open byte range within scanned content.
type MatchSpan struct {
	Start int
	End   int
}

// builtinPatterns ships a small default set covering common credential
// shapes. Order matters: it is also registration order for the
// earliest-added-wins overlap rule.
func builtinPatterns() []Pattern {
	return []Pattern{
		{ID: "builtin_aws_access_key", Name: "AWS Access Key", Regex: `AKIA[0-9A-Z]{16}`, Placeholder: "[REDACTED_AWS_KEY]", Enabled: true, Builtin: true},
		{ID: "builtin_private_key", Name: "Private Key Header", Regex: `-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`, Placeholder: "[REDACTED_PRIVATE_KEY]", Enabled: true, Builtin: true},
		{ID: "builtin_generic_api_key", Name: "Generic API Key", Regex: `(?i)api[_-]?key["']?\s*[:=]\s*["']?[A-Za-z0-9_\-]{16,}`, Placeholder: "[REDACTED_API_KEY]", Enabled: true, Builtin: true},
		{ID: "builtin_password_assignment", Name: "Password Assignment", Regex: `(?i)password["']?\s*[:=]\s*["'][^"']+["']`, Placeholder: "[REDACTED_PASSWORD]", Enabled: true, Builtin: true},
	}
}

// MaxRedactableSize is the per-file size cap (5 MiB) that content reads
// for redaction honor (spec §5). It is independent of, and smaller than,
// scanner.MaxRedactableSize.
const MaxRedactableSize = 5 * 1024 * 1024

// Redactor holds the ordered pattern list and a per-fingerprint memoized
// scan cache so a pattern enable/disable toggle doesn't force re-reading
// every known file's content from disk (spec §4.7: "implementations may
// memoize per-fingerprint").
type Redactor struct {
	mu       sync.RWMutex
	patterns []Pattern
	cache    *cache.Store
}

// New returns a Redactor seeded with the builtin pattern set and an
// ephemeral, process-local memoization cache.
func New() *Redactor {
	return NewWithCache(cache.NewStore())
}

// NewWithCache returns a Redactor backed by store for memoization,
// letting the engine preload a disk-persisted cache (internal/cache)
// across process restarts.
func NewWithCache(store *cache.Store) *Redactor {
	r := &Redactor{cache: store}
	for _, p := range builtinPatterns() {
		p.compiled = regexp.MustCompile(p.Regex)
		r.patterns = append(r.patterns, p)
	}
	return r
}

// Patterns returns builtins first, then custom patterns in insertion
// order, matching get_sensitive_patterns (spec §6).
func (r *Redactor) Patterns() []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// AddCustomPattern compiles and appends a user pattern. A failed compile
// returns ErrPatternInvalid without mutating state.
func (r *Redactor) AddCustomPattern(p Pattern) error {
	compiled, err := regexp.Compile(p.Regex)
	if err != nil {
		return errors.Wrapf(ErrPatternInvalid, "%s: %v", p.Regex, err)
	}
	p.compiled = compiled
	p.Builtin = false

	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, p)
	r.invalidateLocked()
	return nil
}

// UpdateCustomPattern replaces the fields of an existing non-builtin
// pattern by id.
func (r *Redactor) UpdateCustomPattern(id string, fields Pattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.patterns {
		if p.ID != id || p.Builtin {
			continue
		}
		compiled, err := regexp.Compile(fields.Regex)
		if err != nil {
			return errors.Wrapf(ErrPatternInvalid, "%s: %v", fields.Regex, err)
		}
		fields.ID = id
		fields.Builtin = false
		fields.compiled = compiled
		r.patterns[i] = fields
		r.invalidateLocked()
		return nil
	}
	return errors.Errorf("not_found: pattern %s", id)
}

// DeleteCustomPattern removes a non-builtin pattern by id.
func (r *Redactor) DeleteCustomPattern(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.patterns[:0:0]
	for _, p := range r.patterns {
		if p.ID == id && !p.Builtin {
			continue
		}
		kept = append(kept, p)
	}
	r.patterns = kept
	r.invalidateLocked()
}

// SetBuiltinEnabled toggles the enabled flag of the pattern with id; the
// lookup matches custom patterns as well as builtins.
func (r *Redactor) SetBuiltinEnabled(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.patterns {
		if p.ID == id {
			r.patterns[i].Enabled = enabled
		}
	}
	r.invalidateLocked()
}

// invalidateLocked drops the memoization cache; callers must hold mu.
// A pattern set change invalidates every previously memoized verdict
// since enabling/disabling a pattern can change a file's marked status.
func (r *Redactor) invalidateLocked() {
	r.cache.Invalidate()
}

// ScanResult is the outcome of scanning one file's content.
type ScanResult struct {
	Marked  bool
	Matches []MatchSpan
}

// ScanFile reads path and checks it against every enabled pattern,
// memoized by fingerprint so repeated scans of an unchanged file are
// free (spec §4.7). Files larger than MaxRedactableSize are treated as
// non-sensitive, matching the redaction size cap (spec §5).
func (r *Redactor) ScanFile(path, fingerprint string) (ScanResult, error) {
	if marked, ok := r.cache.Get(fingerprint); ok {
		return ScanResult{Marked: marked}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return ScanResult{}, errors.Wrapf(err, "stat %s", path)
	}
	if info.Size() > MaxRedactableSize {
		r.memoize(fingerprint, false)
		return ScanResult{}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return ScanResult{}, errors.Wrapf(err, "read %s", path)
	}

	spans := r.matchSpans(content)
	result := ScanResult{Marked: len(spans) > 0, Matches: spans}
	r.memoize(fingerprint, result.Marked)
	return result, nil
}

func (r *Redactor) memoize(fingerprint string, marked bool) {
	if fingerprint == "" {
		return
	}
	r.cache.Set(fingerprint, marked)
}

// Redact replaces every match of every enabled pattern in content with
// that pattern's placeholder. Overlapping matches are resolved by
// earliest start; among matches that start at the same offset, the
// earliest-registered pattern wins (spec §4.7, §9 open question).
func (r *Redactor) Redact(content string) string {
	spans := r.matchSpansWithPlaceholder([]byte(content))
	if len(spans) == 0 {
		return content
	}

	var out []byte
	cursor := 0
	for _, s := range spans {
		out = append(out, content[cursor:s.span.Start]...)
		out = append(out, s.placeholder...)
		cursor = s.span.End
	}
	out = append(out, content[cursor:]...)
	return string(out)
}

type placedSpan struct {
	span        MatchSpan
	order       int
	placeholder string
}

// matchSpans returns the accepted, non-overlapping match spans for
// content against all enabled patterns.
func (r *Redactor) matchSpans(content []byte) []MatchSpan {
	placed := r.matchSpansWithPlaceholder(content)
	out := make([]MatchSpan, len(placed))
	for i, p := range placed {
		out[i] = p.span
	}
	return out
}

func (r *Redactor) matchSpansWithPlaceholder(content []byte) []placedSpan {
	r.mu.RLock()
	patterns := make([]Pattern, len(r.patterns))
	copy(patterns, r.patterns)
	r.mu.RUnlock()

	var candidates []placedSpan
	for order, p := range patterns {
		if !p.Enabled || p.compiled == nil {
			continue
		}
		for _, loc := range p.compiled.FindAllIndex(content, -1) {
			candidates = append(candidates, placedSpan{
				span:        MatchSpan{Start: loc[0], End: loc[1]},
				order:       order,
				placeholder: p.Placeholder,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].span.Start != candidates[j].span.Start {
			return candidates[i].span.Start < candidates[j].span.Start
		}
		if candidates[i].order != candidates[j].order {
			return candidates[i].order < candidates[j].order
		}
		return candidates[i].span.End > candidates[j].span.End
	})

	var accepted []placedSpan
	lastEnd := -1
	for _, c := range candidates {
		if c.span.Start < lastEnd {
			continue
		}
		accepted = append(accepted, c)
		lastEnd = c.span.End
	}
	return accepted
}
