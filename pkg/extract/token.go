package extract

import "regexp"

// tokenPatterns probe the different markup shapes the booking key has been
// observed in, in priority order. They all capture the same token; the first
// match wins.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`post\.yyp_pass=['"](.*?)['"]`),
	regexp.MustCompile(`yyp_pass\s*=\s*['"](.*?)['"]`),
	regexp.MustCompile(`name=['"]yyp_pass['"]\s*value=['"](.*?)['"]`),
}

// Token extracts the one-time booking key from a venue page body. The second
// return value is false when no pattern matched.
func Token(body string) (string, bool) {
	for _, p := range tokenPatterns {
		if m := p.FindStringSubmatch(body); m != nil && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}
