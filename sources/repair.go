package sources

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"
)

// Repair passes for the bundle endpoint, which returns text that is not
// always valid JSON. Each pass handles one known defect and is a no-op on
// well-formed input.

var (
	newlineRegexp   = regexp.MustCompile(`\r?\n`)
	userPhoneRegexp = regexp.MustCompile(`([,\s{])userPhone"`)
	emptyDataIA     = regexp.MustCompile(`\],\s*"dataia"\s*:\s*\}\s*$`)

	// key -> *regexp.Regexp matching "key": "value"
	valueRegexps sync.Map
)

// CollapseNewlines replaces literal line breaks with spaces. Upstream emits
// raw newlines inside string values.
func CollapseNewlines(text string) string {
	return newlineRegexp.ReplaceAllString(text, " ")
}

// QuoteUserPhoneKey restores the opening quote of the userPhone key.
func QuoteUserPhoneKey(text string) string {
	if !strings.Contains(text, `userPhone"`) {
		return text
	}
	return userPhoneRegexp.ReplaceAllString(text, `$1"userPhone"`)
}

// FirstNonEmptyValue scans every textual occurrence of "key": "value" and
// returns the first non-empty value. Decoding keeps the last duplicate, which
// upstream sends empty.
func FirstNonEmptyValue(text, key string) string {
	for _, m := range valueRegexp(key).FindAllStringSubmatch(text, -1) {
		v := unescapeJSONString(m[1])
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func valueRegexp(key string) *regexp.Regexp {
	if re, ok := valueRegexps.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := valueRegexps.LoadOrStore(key,
		regexp.MustCompile(`"`+regexp.QuoteMeta(key)+`"\s*:\s*"((?:[^"\\]|\\.)*)"`))
	return re.(*regexp.Regexp)
}

// FixEmptyDataIA turns the trailing `,"dataia" : }` into an empty object.
func FixEmptyDataIA(text string) string {
	return emptyDataIA.ReplaceAllString(text, `], "dataia" : {} }`)
}

// NormalizeURL trims whitespace and trailing commas and makes
// protocol-relative URLs absolute.
func NormalizeURL(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), ", \t")
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return u
}

func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
