package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern maps a dynamic route to its metrics label.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns are checked in order.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/subscriptions/\d+$`), Template: "/subscriptions/:id"},
	{Pattern: regexp.MustCompile(`^/subscriptions/\d+/summaries$`), Template: "/subscriptions/:id/summaries"},
	{Pattern: regexp.MustCompile(`^/subscriptions/\d+/clear-history$`), Template: "/subscriptions/:id/clear-history"},
	{Pattern: regexp.MustCompile(`^/subscriptions/[^/]+(/.*)?$`), Template: "/subscriptions/:other"},
}

// NormalizePath collapses ids in a request path so metrics labels stay
// bounded. Query strings and a trailing slash are dropped; static paths
// pass through.
//
//	NormalizePath("/subscriptions/12")           // "/subscriptions/:id"
//	NormalizePath("/subscriptions/12/summaries") // "/subscriptions/:id/summaries"
//	NormalizePath("/me/push-time")               // "/me/push-time"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
