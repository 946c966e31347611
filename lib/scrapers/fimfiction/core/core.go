// Package core talks to the site. It fetches pages, feeds and API
// responses and hands them to the parsers, it also performs the account
// actions a logged in user can take.
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"fimfiction/internal/components/telemetry"
	"fimfiction/lib/model"
	"fimfiction/lib/restyutil"
	"fimfiction/lib/scrapers/fimfiction/apijson"
	"fimfiction/lib/scrapers/fimfiction/search"

	"dario.cat/mergo"
	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("scrapers/fimfiction/core")
var meter = otel.Meter("scrapers/fimfiction/core")

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var (
	ErrBadPassword        = errors.New("invalid password")
	ErrBadUsername        = errors.New("invalid username")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrShelfUnknown       = errors.New("story does not know the shelf")
)

// Endpoints are the paths of everything the client requests, relative to
// the base url. Empty fields fall back to DefaultEndpoints.
type Endpoints struct {
	Login           string `json:"login,omitempty"`
	Logout          string `json:"logout,omitempty"`
	Home            string `json:"home,omitempty"`
	Story           string `json:"story,omitempty"`
	Search          string `json:"search,omitempty"`
	UnreadFeed      string `json:"unread_feed,omitempty"`
	StoryAPI        string `json:"story_api,omitempty"`
	Rate            string `json:"rate,omitempty"`
	Shelf           string `json:"shelf,omitempty"`
	ToggleRead      string `json:"toggle_read,omitempty"`
	StoryDownload   string `json:"story_download,omitempty"`
	EPUBDownload    string `json:"epub_download,omitempty"`
	ChapterDownload string `json:"chapter_download,omitempty"`
}

var DefaultEndpoints = Endpoints{
	Login:           "/ajax/login.php",
	Logout:          "/ajax/logout.php",
	Home:            "/",
	Story:           "/story/%d",
	Search:          "/index.php",
	UnreadFeed:      "/rss/tracking.php",
	StoryAPI:        "/api/story.php",
	Rate:            "/rate.php",
	Shelf:           "/ajax/bookshelf_items/post.php",
	ToggleRead:      "/ajax/toggle_read.php",
	StoryDownload:   "/download_story.php",
	EPUBDownload:    "/download_epub.php",
	ChapterDownload: "/download_chapter.php",
}

type ClientOptions struct {
	// BaseURL defaults to search.DefaultSiteURL.
	BaseURL   string
	UserAgent string
	// RequestsPerSecond defaults to 2.
	RequestsPerSecond float64
	// Timeout defaults to 30 seconds.
	Timeout          time.Duration
	BypassCloudflare bool
	Endpoints        Endpoints
	Registry         *model.Registry
	Tel              telemetry.API
	// Dump receives every exchange if it is not nil.
	Dump restyutil.InstrumentOutput
}

type Client struct {
	BaseURL   *url.URL
	Http      *resty.Client
	Endpoints Endpoints
	Registry  *model.Registry

	pages  search.Parser
	meta   apijson.Reader
	tel    telemetry.API
	parsed metric.Int64Counter
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = search.DefaultSiteURL
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Registry == nil {
		opts.Registry = model.NewRegistry()
	}
	err := mergo.Merge(&opts.Endpoints, DefaultEndpoints)
	if err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	tel := telemetry.NewScopedAPI("fimfiction_client", telemetry.OrNop(opts.Tel))

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeader("user-agent", opts.UserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseURL.Hostname()))
	client.SetTimeout(opts.Timeout)

	// the limiter only delays requests, none are dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)
	restyutil.InstrumentClient(client, tracer, opts.Dump)

	parsed, err := meter.Int64Counter(
		"fimfiction_parsed_stories_total",
		metric.WithDescription("The total amount of story records parsed out of responses."),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		BaseURL:   baseURL,
		Http:      client,
		Endpoints: opts.Endpoints,
		Registry:  opts.Registry,
		pages: search.Parser{
			Registry: opts.Registry,
			SiteURL:  opts.BaseURL,
			Tel:      tel,
		},
		meta:   apijson.NewReader(opts.Registry, tel),
		tel:    tel,
		parsed: parsed,
	}, nil
}

// fail records err on the span and reports it under id.
func (c *Client) fail(span trace.Span, id string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.tel.ReportBroken(id, err)
	return err
}

func checkResponse(res *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, res.Status())
	}
	return nil
}

func (c *Client) countParsed(ctx context.Context, n int) {
	c.parsed.Add(ctx, int64(n))
}
