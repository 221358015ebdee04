package httputil

import (
	"net/http"
	"time"
)

// Clients bundles the tuned HTTP clients used by the service.
type Clients struct {
	Scraping *http.Client // comparable-page fetches against the portal
}

func NewClients(scrapeTimeout time.Duration) *Clients {
	if scrapeTimeout <= 0 {
		scrapeTimeout = 15 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Clients{
		Scraping: &http.Client{
			Timeout:   scrapeTimeout,
			Transport: transport,
		},
	}
}

// SetBrowserHeaders applies the header set a standard browser would send, so
// portal responses match what the markup selectors were written against.
func SetBrowserHeaders(req *http.Request) {
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.5")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
}
