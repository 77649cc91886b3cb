package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/yegors/zendmap/internal/geo"
	"github.com/yegors/zendmap/pkg/logger"
)

// DefaultURL is the registry's site search endpoint.
const DefaultURL = "https://sites.bipt.be/ajaxinterface.php"

// Client queries the site registry
type Client struct {
	httpClient *http.Client
	url        string
	language   string
	logger     *logger.Logger
}

// NewClient creates a new registry client
func NewClient(url, language string, timeout time.Duration, logger *logger.Logger) *Client {
	if language == "" {
		language = "sitesnl"
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url:      url,
		language: language,
		logger:   logger.Named("registry-client"),
	}
}

// FetchSites returns every site, operational or not, inside the WGS84 box from..to.
func (c *Client) FetchSites(ctx context.Context, from, to geo.LatLon) ([]Site, error) {
	form := url.Values{}
	form.Set("action", "getSites")
	form.Set("latfrom", formatCoord(from.Lat))
	form.Set("latto", formatCoord(to.Lat))
	form.Set("longfrom", formatCoord(from.Lon))
	form.Set("longto", formatCoord(to.Lon))
	form.Set("LangSiteTable", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.Info("Fetching sites",
		logger.String("url", c.url),
		logger.String("from", formatCoord(from.Lat)+","+formatCoord(from.Lon)),
		logger.String("to", formatCoord(to.Lat)+","+formatCoord(to.Lon)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// the registry has served both UTF-8 and Latin-1 owner names
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode response charset: %w", err)
	}

	sites, err := DecodeSites(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched sites", logger.Int("sites", len(sites)))
	return sites, nil
}

// FetchOperational fetches the sites inside a Lambert 72 box and keeps those in service.
func (c *Client) FetchOperational(ctx context.Context, bbox geo.BBox) ([]Site, error) {
	from, to := bbox.WGS84()
	sites, err := c.FetchSites(ctx, from, to)
	if err != nil {
		return nil, err
	}

	operational := Operational(sites)
	c.logger.Info("Loaded sites",
		logger.Int("total", len(sites)),
		logger.Int("operational", len(operational)))
	return operational, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
