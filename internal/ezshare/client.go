package ezshare

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Client talks to the HTTP file browser embedded in an EzShare WiFi SD card.
type Client struct {
	httpClient *http.Client
	rootURL    *url.URL

	// pageTimeout bounds the small listing/version requests. Downloads are
	// only bounded by the caller's context: a multi-megabyte EDF over the
	// card's WiFi can legitimately take minutes.
	pageTimeout time.Duration
}

func New(rootURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid card URL %q: %w", rootURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid card URL %q: scheme must be http or https", rootURL)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: timeout},
		},
		rootURL:     u,
		pageTimeout: timeout,
	}, nil
}

func (c *Client) RootURL() string {
	return c.rootURL.String()
}

// List fetches the listing page at dirURL and parses it into entries.
// Hrefs on the page are resolved against the page URL.
func (c *Client) List(ctx context.Context, dirURL string) ([]Entry, error) {
	pageURL, err := url.Parse(dirURL)
	if err != nil {
		return nil, fmt.Errorf("invalid directory URL %q: %w", dirURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	body, err := c.get(ctx, dirURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return parseListing(body, pageURL)
}

// Download fetches fileURL into localPath. When modified is non-zero the
// local mtime is set to it so later runs can compare against the listing.
func (c *Client) Download(ctx context.Context, fileURL, localPath string, modified time.Time) (int64, error) {
	body, err := c.get(ctx, fileURL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	written, err := io.Copy(out, body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(localPath)
		return 0, fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	if !modified.IsZero() {
		if err := os.Chtimes(localPath, modified, modified); err != nil {
			return written, fmt.Errorf("failed to set mtime on %s: %w", localPath, err)
		}
	}

	return written, nil
}

// Version queries the card's firmware version endpoint.
func (c *Client) Version(ctx context.Context) (*Version, error) {
	versionURL := *c.rootURL
	versionURL.Path = "/client"
	versionURL.RawQuery = "command=version"

	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	body, err := c.get(ctx, versionURL.String())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read version response: %w", err)
	}

	return parseVersion(string(raw)), nil
}

func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("card unreachable at %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("card returned %s for %s", resp.Status, rawURL)
	}

	return resp.Body, nil
}
