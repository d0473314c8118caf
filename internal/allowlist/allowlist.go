// Package allowlist decides whether an inbound request path may reach a
// translator. Rules compile once at startup and the filter is read-only
// afterwards, so concurrent readers never contend.
package allowlist

import (
	"fmt"
	"regexp"
)

// DefaultPatterns enumerates the known provider endpoints plus a catch-all
// for anything under the common /v1/ prefix. Paths outside these (for
// example /v2/...) are denied with a client-visible error.
var DefaultPatterns = []string{
	`^/v1/messages$`,
	`^/v1/chat/completions$`,
	`^/v1/completions$`,
	`^/v1/responses$`,
	`^/v1/models(/.*)?$`,
	`^/v1beta/models/[^/]+:(generateContent|streamGenerateContent)$`,
	`^/v1/.*$`,
}

// Filter matches request paths against an ordered rule set.
type Filter struct {
	rules []*regexp.Regexp
}

// Options configures the rule set. Override replaces the defaults entirely;
// Additive entries are appended to whatever base is in effect. When both are
// supplied, Override wins as the base and Additive still appends to it,
// matching the original launcher's behavior.
type Options struct {
	Override []string
	Additive []string
}

// New compiles a filter from the given options. An invalid pattern is a
// startup error, not a silent skip.
func New(opts Options) (*Filter, error) {
	base := DefaultPatterns
	if len(opts.Override) > 0 {
		base = opts.Override
	}
	patterns := make([]string, 0, len(base)+len(opts.Additive))
	patterns = append(patterns, base...)
	patterns = append(patterns, opts.Additive...)

	f := &Filter{rules: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid allow-list pattern %q: %w", p, err)
		}
		f.rules = append(f.rules, re)
	}
	return f, nil
}

// Default returns the filter built from DefaultPatterns.
func Default() *Filter {
	f, err := New(Options{})
	if err != nil {
		// DefaultPatterns are constants; a compile failure is a programming error.
		panic(err)
	}
	return f
}

// Allow reports whether any rule matches the path. Same path and same
// configuration always yield the same decision.
func (f *Filter) Allow(path string) bool {
	for _, re := range f.rules {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
