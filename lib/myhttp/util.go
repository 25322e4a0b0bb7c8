package myhttp

import (
	"fmt"
	"net/http"
	"os"
)

func HostnameWithScheme(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GuessHostnameWithScheme is used when there is no request to derive the hostname from (subscriptions at startup)
func GuessHostnameWithScheme() string {
	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		return fmt.Sprintf("http://localhost:%s", port)
	}

	return fmt.Sprintf("https://%s.appspot.com", project)
}
