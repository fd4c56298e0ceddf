// Package fetch measures response body lengths.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -destination mock/fetcher.go -package mock gitlab.com/slon/wgetter/fetch Fetcher

// Fetcher performs one GET and returns the length of the response body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (int, error)
}

// Func adapts an ordinary function to Fetcher.
type Func func(ctx context.Context, url string) (int, error)

func (f Func) Fetch(ctx context.Context, url string) (int, error) {
	return f(ctx, url)
}

// NetworkError is returned when a request cannot complete or the server
// replies with a non-2xx status. StatusCode is zero when no response arrived.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTP fetches over a client that lives exactly as long as one call.
type HTTP struct {
	logger *zap.Logger
}

func NewHTTP(logger *zap.Logger) *HTTP {
	return &HTTP{logger: logger}
}

func (h *HTTP) Fetch(ctx context.Context, url string) (int, error) {
	client, release := h.acquire()
	defer release()

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, &NetworkError{URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		return 0, &NetworkError{
			URL:        url,
			StatusCode: resp.StatusCode(),
			Err:        errors.New(resp.Status()),
		}
	}

	// Пустое тело - не ошибка, просто длина 0
	return len(resp.Body()), nil
}

// acquire builds a client with its own transport. The returned release
// closes every connection the transport opened.
func (h *HTTP) acquire() (*resty.Client, func()) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Одно соединение на вызов: не возвращаем его в пул
	transport.DisableKeepAlives = true

	hc := &http.Client{
		Transport: &loggingTransport{next: transport, logger: h.logger},
	}

	return resty.NewWithClient(hc), transport.CloseIdleConnections
}
