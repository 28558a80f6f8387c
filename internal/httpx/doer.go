package httpx

import "net/http"

// Doer describes an HTTP client. *Client and *http.Client both satisfy it.
//
//go:generate mockgen -package=httpxmock -destination=httpxmock/doer.go -source=doer.go Doer
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
