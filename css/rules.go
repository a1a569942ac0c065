package css

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// declarationSep matches ';' unless it is followed by ')' with no '(' in
// between, so separators inside url(...), rgba(...) etc. are kept.
var declarationSep = func() *regexp2.Regexp {
	re := regexp2.MustCompile(`;(?![^(]*\))`, regexp2.None)
	re.MatchTimeout = 2 * time.Second
	return re
}()

const base64Continuation = "base64,"

// splitDeclarations splits a rule block body into declaration lines.
func splitDeclarations(body string) []string {
	runes := []rune(body)

	var (
		lines []string
		start int
	)
	m, err := declarationSep.FindRunesMatch(runes)
	for err == nil && m != nil {
		lines = append(lines, string(runes[start:m.Index]))
		start = m.Index + m.Length
		m, err = declarationSep.FindNextMatch(m)
	}
	if err != nil {
		// match timeout, fall back to plain separators for the rest
		return append(lines, strings.Split(string(runes[start:]), ";")...)
	}
	return append(lines, string(runes[start:]))
}

// ParseRules parses the body of a rule block into an ordered list of rules.
// Lines without ':' become defective rules, lines starting with "base64," are
// appended to the value of the previous rule.
func ParseRules(body string) []Rule {
	rules := make([]Rule, 0)
	for _, line := range splitDeclarations(normalizeEOL(body)) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if directive, value, found := strings.Cut(line, ":"); found {
			directive, value = strings.TrimSpace(directive), strings.TrimSpace(value)
			if directive == "" || value == "" {
				continue
			}
			rules = append(rules, Rule{Directive: directive, Value: value})
			continue
		}

		if strings.HasPrefix(line, base64Continuation) {
			if len(rules) > 0 {
				rules[len(rules)-1].Value += line
			}
			continue
		}
		rules = append(rules, Rule{Value: line, Defective: true})
	}
	return rules
}

// FindRule returns index of the rule with given directive or -1. When several
// rules share the directive the last one wins unless one of them also has
// exactly the given value.
func FindRule(rules []Rule, directive, value string) int {
	found := -1
	for i := range rules {
		if rules[i].Directive == directive {
			found = i
			if value != "" && rules[i].Value == value {
				break
			}
		}
	}
	return found
}

// CompactRules returns rules without tombstones.
func CompactRules(rules []Rule) []Rule {
	compacted := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.Deleted() {
			compacted = append(compacted, r)
		}
	}
	return compacted
}
