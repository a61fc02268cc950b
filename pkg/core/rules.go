package core

import (
	"sort"
	"strings"
)

// DefaultFetchLimit caps how many candidate keys discovery returns per post type.
const DefaultFetchLimit = 30

// FilterRuleSet decides which raw metadata keys are exposed as custom fields.
type FilterRuleSet struct {
	Blacklist        map[string]struct{}
	ExcludedPrefixes map[string][]string // category -> prefixes
	ExcludedSuffixes map[string]struct{}
}

// Hooks are value-transforming extension points, applied once when the
// rule set is composed. Nil hooks leave the defaults untouched.
type Hooks struct {
	Blacklist        func([]string) []string
	ExcludedSuffixes func([]string) []string
	ExcludedPrefixes func(map[string][]string) map[string][]string
	FetchLimit       func(int) int
}

// NewFilterRuleSet builds a rule set from plain lists.
func NewFilterRuleSet(blacklist []string, prefixes map[string][]string, suffixes []string) FilterRuleSet {
	rs := FilterRuleSet{
		Blacklist:        make(map[string]struct{}, len(blacklist)),
		ExcludedPrefixes: make(map[string][]string, len(prefixes)),
		ExcludedSuffixes: make(map[string]struct{}, len(suffixes)),
	}
	for _, k := range blacklist {
		rs.Blacklist[k] = struct{}{}
	}
	for cat, list := range prefixes {
		rs.ExcludedPrefixes[cat] = append([]string(nil), list...)
	}
	for _, s := range suffixes {
		rs.ExcludedSuffixes[s] = struct{}{}
	}
	return rs
}

// DefaultFilterRuleSet excludes the bookkeeping keys a CMS writes next to real content.
func DefaultFilterRuleSet() FilterRuleSet {
	return NewFilterRuleSet(
		[]string{
			"_edit_lock",
			"_edit_last",
			"_thumbnail_id",
			"_wp_page_template",
			"_wp_old_slug",
			"_wp_old_date",
			"_pingme",
			"_encloseme",
			"_wp_trash_meta_status",
			"_wp_trash_meta_time",
			"_wp_desired_post_slug",
		},
		map[string][]string{
			"core":       {"_wp_", "_edit_", "_oembed_", "_menu_item_"},
			"builder":    {"_et_", "et_", "_elementor_", "_fl_builder_"},
			"seo":        {"_yoast_", "rank_math_", "_aioseo_"},
			"commerce":   {"_wc_", "_transient_"},
			"structured": {"field_", "_field_"},
		},
		[]string{"_lock", "_last", "_hash", "_cache", "_backup"},
	)
}

// Extend returns a copy of rs with the given keys added.
func (rs FilterRuleSet) Extend(blacklist []string, prefixes map[string][]string, suffixes []string) FilterRuleSet {
	out := NewFilterRuleSet(rs.blacklistList(), rs.ExcludedPrefixes, rs.suffixList())
	for _, k := range blacklist {
		out.Blacklist[k] = struct{}{}
	}
	for cat, list := range prefixes {
		out.ExcludedPrefixes[cat] = append(out.ExcludedPrefixes[cat], list...)
	}
	for _, s := range suffixes {
		out.ExcludedSuffixes[s] = struct{}{}
	}
	return out
}

// Apply runs the hooks over the rule set and returns the result.
func (rs FilterRuleSet) Apply(h Hooks) FilterRuleSet {
	blacklist := rs.blacklistList()
	suffixes := rs.suffixList()
	prefixes := rs.ExcludedPrefixes
	if h.Blacklist != nil {
		blacklist = h.Blacklist(blacklist)
	}
	if h.ExcludedSuffixes != nil {
		suffixes = h.ExcludedSuffixes(suffixes)
	}
	if h.ExcludedPrefixes != nil {
		prefixes = h.ExcludedPrefixes(NewFilterRuleSet(nil, prefixes, nil).ExcludedPrefixes)
	}
	return NewFilterRuleSet(blacklist, prefixes, suffixes)
}

// ResolveFetchLimit applies the FetchLimit hook to limit, defaulting to DefaultFetchLimit.
func (h Hooks) ResolveFetchLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	if h.FetchLimit != nil {
		if l := h.FetchLimit(limit); l > 0 {
			return l
		}
	}
	return limit
}

// ShouldInclude checks the blacklist, then suffixes, then every prefix group.
// The empty key is always excluded.
func (rs FilterRuleSet) ShouldInclude(key string) bool {
	if key == "" {
		return false
	}
	if _, ok := rs.Blacklist[key]; ok {
		return false
	}
	for suffix := range rs.ExcludedSuffixes {
		if suffix != "" && strings.HasSuffix(key, suffix) {
			return false
		}
	}
	for _, group := range rs.ExcludedPrefixes {
		for _, prefix := range group {
			if prefix != "" && strings.HasPrefix(key, prefix) {
				return false
			}
		}
	}
	return true
}

func (rs FilterRuleSet) blacklistList() []string {
	out := make([]string, 0, len(rs.Blacklist))
	for k := range rs.Blacklist {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (rs FilterRuleSet) suffixList() []string {
	out := make([]string, 0, len(rs.ExcludedSuffixes))
	for k := range rs.ExcludedSuffixes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
