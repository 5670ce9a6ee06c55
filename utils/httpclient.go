package utils

import (
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	httpClientTimeout         = 20 * time.Second
	httpDialTimeout           = 5 * time.Second
	httpKeepAlive             = 30 * time.Second
	httpTLSHandshakeTimeout   = 5 * time.Second
	httpResponseHeaderTimeout = 10 * time.Second
	httpExpectContinueTimeout = 1 * time.Second
	httpIdleConnTimeout       = 90 * time.Second
)

// httpTransport is shared by every client so SOAP, DIAL and search calls
// to the same host reuse idle connections.
var httpTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   httpDialTimeout,
		KeepAlive: httpKeepAlive,
	}).DialContext,
	TLSHandshakeTimeout:   httpTLSHandshakeTimeout,
	ResponseHeaderTimeout: httpResponseHeaderTimeout,
	ExpectContinueTimeout: httpExpectContinueTimeout,
	IdleConnTimeout:       httpIdleConnTimeout,
}

// NewHTTPClient returns a plain client sharing the tuned transport.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   httpClientTimeout,
		Transport: httpTransport,
	}
}

// NewRetryableHTTPClient wraps NewHTTPClient with go-retryablehttp.
// A retryMax of 0 sends every request exactly once. Once retries run out the
// last response is handed back untouched, so callers still see the status
// and body of a 429 or 5xx reply.
func NewRetryableHTTPClient(retryMax int) *http.Client {
	if retryMax < 0 {
		retryMax = 0
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.Logger = nil
	retryClient.HTTPClient = NewHTTPClient()
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryClient.StandardClient()
}
