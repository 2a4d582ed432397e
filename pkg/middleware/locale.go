package middleware

import (
	"context"
	"net/http"
	"strings"
)

const localeKey contextKeyType = "locale"

// Locale resolves the request language from Accept-Language against the
// supported set (first entry is the default) and echoes it in
// Content-Language.
func Locale(supported ...string) func(http.Handler) http.Handler {
	if len(supported) == 0 {
		supported = []string{"en"}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := negotiate(r.Header.Get("Accept-Language"), supported)
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeKey, lang)))
		})
	}
}

// negotiate picks the first listed tag whose primary subtag is supported.
// Quality values are ignored; clients send a single language.
func negotiate(header string, supported []string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		for _, s := range supported {
			if primary == s {
				return s
			}
		}
	}
	return supported[0]
}

// LocaleFromContext returns the negotiated language, or "" outside Locale.
func LocaleFromContext(ctx context.Context) string {
	l, _ := ctx.Value(localeKey).(string)
	return l
}
