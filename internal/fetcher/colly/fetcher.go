// Package collyfetcher implements fuel.Downloader using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
)

const defaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements fuel.Downloader using the Colly collector.
// Each call makes exactly one request; there are no retries.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// fetchState collects what the hooks observed during one visit.
type fetchState struct {
	body       []byte
	responded  bool
	statusCode int
	err        error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	// Monthly survey files regularly exceed colly's 10MB default.
	c.MaxBodySize = 0
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.DetectCharset = false
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Download executes a single HTTP GET and returns the full body.
// A 404 is reported as fuel.ErrResourceAbsent; any other failure as *fuel.TransferError.
func (f *Fetcher) Download(ctx context.Context, url string) ([]byte, error) {
	state := &fetchState{}
	collector := f.buildCollector(ctx, state)

	if err := f.runCollector(ctx, collector, url, state); err != nil {
		return nil, err
	}
	return state.body, nil
}

func (f *Fetcher) buildCollector(ctx context.Context, state *fetchState) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	collector.SetRequestTimeout(timeout)
	f.configureCollectorHooks(collector, state)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, state *fetchState) {
	hooks.OnResponse(func(r *colly.Response) {
		state.responded = true
		state.statusCode = r.StatusCode
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		body, err := rawBody(contentType, r.Body)
		if err != nil {
			state.err = err
			return
		}
		state.body = body
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			state.statusCode = r.StatusCode
		}
		state.err = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, state *fetchState) error {
	// The request carries ctx, so a cancel aborts it in flight and Visit returns promptly.
	visitErr := collector.Visit(url)
	if err := ctx.Err(); err != nil {
		return &fuel.TransferError{URL: url, Err: fmt.Errorf("colly fetch canceled: %w", err)}
	}
	return classify(url, state, visitErr)
}

// classify maps the visit result onto the fuel error taxonomy.
func classify(url string, state *fetchState, visitErr error) error {
	if state.statusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", fuel.ErrResourceAbsent, url)
	}
	err := state.err
	if err == nil {
		err = visitErr
	}
	if err != nil {
		return &fuel.TransferError{URL: url, StatusCode: state.statusCode, Err: err}
	}
	if !state.responded {
		return &fuel.TransferError{URL: url, StatusCode: state.statusCode, Err: errors.New("no response received")}
	}
	return nil
}

// rawBody undoes colly's transcoding to UTF-8, which it applies whenever the response
// declares a charset, so the returned bytes are exactly what the server sent.
func rawBody(contentType string, body []byte) ([]byte, error) {
	out := append([]byte(nil), body...)
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || len(body) == 0 {
		return out, nil
	}
	for _, skip := range []string{"image/", "video/", "audio/", "font/"} {
		if strings.HasPrefix(mediaType, skip) {
			return out, nil
		}
	}
	label := params["charset"]
	if label == "" {
		return out, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return out, nil
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return out, nil
	}
	encoded, err := enc.NewEncoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("restore %s body: %w", label, err)
	}
	return encoded, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
