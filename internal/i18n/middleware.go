package i18n

import "net/http"

// Middleware picks the message language for every request: the "lang" query
// parameter first, then Accept-Language, then fallback.
func Middleware(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), fallback)
			ctx := WithLanguage(r.Context(), tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
