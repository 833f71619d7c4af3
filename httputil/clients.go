package httputil

import (
	"net"
	"net/http"
	"time"
)

// Clients separates traffic to the listing site from traffic to the
// geocoding API so their timeouts and redirect policies can differ.
type Clients struct {
	Scraping *http.Client // listing search pages
	Geocode  *http.Client // geocoding provider
}

func NewClients() *Clients {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	scraping := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
		// A redirected search page means the category code rotated; treat
		// it as a failed page rather than following into a landing page.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Clients{
		Scraping: scraping,
		Geocode:  &http.Client{Timeout: 15 * time.Second, Transport: transport},
	}
}
