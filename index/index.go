// Package index implements a PEP 503 "simple" repository client: it
// fetches a project's index page and parses the archive links on it.
package index

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/datawire/dlib/dlog"

	"github.com/FFY00/python-resolver/archive"
	"github.com/FFY00/python-resolver/requirement"
)

// DefaultURL is the root of the Python Package Index's simple
// repository, used when the caller does not configure one.
const DefaultURL = "https://pypi.org/simple/"

// Link is a single archive reference parsed off a project's index
// page: PEP 503's anchor href, plus the PEP 658 "data-requires-python"
// attribute when the index advertises it.
type Link struct {
	URL            string
	Filename       string
	RequiresPython string // "" means unspecified, i.e. "*"
}

// Client fetches and parses simple-index project pages.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient constructs a Client against baseURL, falling back to
// DefaultURL when empty and http.DefaultClient when httpClient is nil.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

// ErrProjectNotFound is returned when the index responds 404 for a
// project page.
var ErrProjectNotFound = fmt.Errorf("project not found in index")

// ProjectPage fetches and parses the index page for a canonical
// project name, returning every archive link found on it. Links whose
// filename is not a wheel are silently skipped — sdists are out of
// scope for this engine.
func (c *Client) ProjectPage(ctx context.Context, name string) ([]Link, error) {
	name = requirement.CanonicalName(name)
	projectURL := fmt.Sprintf("%s/%s/", c.BaseURL, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, projectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building index request: %w", err)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w: %v", projectURL, archive.ErrNetworkIO, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, ErrProjectNotFound)
	default:
		return nil, fmt.Errorf("fetching %s: %w: unexpected status %s", projectURL, archive.ErrNetworkIO, res.Status)
	}

	base, err := url.Parse(projectURL)
	if err != nil {
		return nil, fmt.Errorf("parsing project URL %s: %w", projectURL, err)
	}

	links, err := parseLinks(res.Body, base)
	if err != nil {
		return nil, fmt.Errorf("reading index page for %s: %w: %v", name, archive.ErrNetworkIO, err)
	}

	dlog.Infof(ctx, "index: %s: %d archive link(s)", name, len(links))
	return links, nil
}

// parseLinks tokenizes the page as XML, tolerating the malformed HTML
// real index servers serve: pip itself does not require strict XML,
// and a truncated/invalid document after the last link is treated as
// the natural end of the page rather than an error.
func parseLinks(r io.Reader, base *url.URL) ([]Link, error) {
	var links []Link

	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	for {
		tok, err := dec.Token()
		var syntaxErr *xml.SyntaxError
		if err == io.EOF {
			break
		} else if errors.As(err, &syntaxErr) {
			// A page that trails off mid-tag is still usable for every
			// link already seen.
			break
		} else if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "a" {
			continue
		}

		var href, requiresPython string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "href":
				href = attr.Value
			case "data-requires-python":
				requiresPython = attr.Value
			}
		}
		if href == "" {
			continue
		}

		parsed, err := url.Parse(href)
		if err != nil {
			continue
		}

		filename := path.Base(parsed.Path)
		if !strings.HasSuffix(filename, ".whl") {
			continue
		}

		links = append(links, Link{
			URL:            base.ResolveReference(parsed).String(),
			Filename:       filename,
			RequiresPython: requiresPython,
		})
	}

	return links, nil
}
