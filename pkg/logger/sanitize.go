package logger

import "strings"

// Query parameters that must never reach the request log. "reason" is
// intentionally absent: unlock reasons travel in the query string and are
// audit data, not secrets.
var sensitiveQueryParams = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"apikey",
	"auth",
	"email",
}

// SanitizeQueryString reports whether rawQuery carries a sensitive parameter
// and the whole query string should be redacted from logs.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveQueryParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
