package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESOptions configures the train search client. Timeout bounds both the
// dial and the wait for response headers.
type ESOptions struct {
	Addrs      []string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
}

func esConfig(opts ESOptions) elasticsearch.Config {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return elasticsearch.Config{
		Addresses:     opts.Addrs,
		Username:      opts.Username,
		Password:      opts.Password,
		MaxRetries:    opts.MaxRetries,
		DisableRetry:  opts.MaxRetries <= 0,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: timeout,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		},
	}
}

// NewESClient creates an Elasticsearch client with optional basic auth.
func NewESClient(opts ESOptions) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(esConfig(opts))
}
