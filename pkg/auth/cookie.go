package auth

import (
	"net/url"
)

// CookieSettings contains cookie security settings derived from base URL.
type CookieSettings struct {
	// Secure indicates whether the cookie should only be sent over HTTPS.
	Secure bool
	// Domain is the cookie domain scope; empty isolates to the exact host.
	Domain string
}

// DeriveCookieSettings determines cookie security settings from the base
// URL. Localhost deployments allow HTTP; everything else requires HTTPS.
// The configCookieDomain parameter allows an explicit override for
// deployments that share the cookie across subdomains.
func DeriveCookieSettings(baseURL string, configCookieDomain string) CookieSettings {
	if configCookieDomain != "" {
		return CookieSettings{
			Secure: isHTTPS(baseURL),
			Domain: configCookieDomain,
		}
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		// Safe defaults for invalid URLs
		return CookieSettings{Secure: true, Domain: ""}
	}

	hostname := parsedURL.Hostname()
	if hostname == "localhost" || hostname == "127.0.0.1" {
		return CookieSettings{Secure: false, Domain: ""}
	}

	return CookieSettings{Secure: parsedURL.Scheme != "http", Domain: ""}
}

// isHTTPS determines if the given base URL uses HTTPS. Returns true for
// empty or invalid URLs as the safe default.
func isHTTPS(baseURL string) bool {
	if baseURL == "" {
		return true
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return true
	}

	return parsedURL.Scheme != "http"
}
