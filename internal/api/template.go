package api

import (
	"net/url"
	"strings"
)

// ResolveTemplate substitutes every `:name` placeholder in the path
// template with the percent-encoded value from params. Every placeholder
// must be covered; a leftover `:name` token in an outgoing path would
// silently hit the wrong route, so resolution fails closed with a
// TemplateError instead.
func ResolveTemplate(template string, params map[string]string) (string, error) {
	path := template
	for k, v := range params {
		path = strings.ReplaceAll(path, ":"+k, url.PathEscape(v))
	}
	if missing := unresolvedPlaceholders(path); len(missing) > 0 {
		return "", &TemplateError{Template: template, Missing: missing}
	}
	return path, nil
}

func unresolvedPlaceholders(path string) []string {
	var missing []string
	for _, seg := range strings.Split(path, "/") {
		if !strings.HasPrefix(seg, ":") || len(seg) == 1 {
			continue
		}
		missing = append(missing, strings.TrimPrefix(seg, ":"))
	}
	return missing
}
