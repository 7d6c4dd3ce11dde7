package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Wikid82/pokedex/backend/internal/metrics"
)

// ErrImageFetch wraps every failure to download a usable image.
var ErrImageFetch = errors.New("image fetch failed")

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	imageAccept      = "image/avif,image/webp,image/apng,image/svg+xml,image/png,image/jpeg,image/gif,image/*;q=0.8,*/*;q=0.5"
	searchReferer    = "https://www.google.com/"

	// DefaultMaxImageBytes caps the size of a downloaded image.
	DefaultMaxImageBytes = 10 << 20
)

// ImageFetcher downloads the image behind a URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Image, error)
}

// Image is a downloaded image. SourceURL is the URL actually requested, after
// redirector unwrapping.
type Image struct {
	Data        []byte
	ContentType string
	SourceURL   string
}

// RedirectRule unwraps image-proxy links: when the host is one of Hosts (or a
// subdomain of one) and the path starts with PathPrefix, the real target is read
// from the Param query parameter.
type RedirectRule struct {
	Name       string
	Hosts      []string
	PathPrefix string
	Param      string
}

// DefaultRedirectRules covers the search engines whose image results are most often
// pasted as image URLs.
var DefaultRedirectRules = []RedirectRule{
	{Name: "google-imgres", Hosts: []string{"google.com", "google.fr", "google.co.uk"}, PathPrefix: "/imgres", Param: "imgurl"},
	{Name: "duckduckgo-proxy", Hosts: []string{"external-content.duckduckgo.com", "proxy.duckduckgo.com"}, PathPrefix: "/iu", Param: "u"},
	{Name: "bing-images", Hosts: []string{"bing.com"}, PathPrefix: "/images/search", Param: "mediaurl"},
}

func (r RedirectRule) matches(u *url.URL) bool {
	if !strings.HasPrefix(u.Path, r.PathPrefix) {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range r.Hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

type ImageService struct {
	client   *http.Client
	rules    []RedirectRule
	maxBytes int64
}

// NewImageService returns a fetcher whose requests are bounded by timeout.
func NewImageService(timeout time.Duration) *ImageService {
	return &ImageService{
		client:   &http.Client{Timeout: timeout},
		rules:    DefaultRedirectRules,
		maxBytes: DefaultMaxImageBytes,
	}
}

// SetRules replaces the redirector rule table.
func (s *ImageService) SetRules(rules []RedirectRule) {
	s.rules = rules
}

// SetMaxBytes sets the maximum accepted image size.
func (s *ImageService) SetMaxBytes(n int64) {
	s.maxBytes = n
}

// Unwrap resolves a known redirector URL to its target. Unparseable URLs and URLs
// that match no rule are returned unchanged.
func (s *ImageService) Unwrap(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	for _, rule := range s.rules {
		if !rule.matches(u) {
			continue
		}
		target := u.Query().Get(rule.Param)
		if target == "" {
			continue
		}
		// Some proxies encode the target twice.
		if strings.HasPrefix(strings.ToLower(target), "http%3a") || strings.HasPrefix(strings.ToLower(target), "https%3a") {
			if decoded, err := url.QueryUnescape(target); err == nil {
				target = decoded
			}
		}
		return target
	}
	return rawURL
}

// Fetch downloads rawURL with browser-like headers and checks that the response is
// an image.
func (s *ImageService) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	img, err := s.fetch(ctx, s.Unwrap(rawURL))
	metrics.IncImageFetch(err == nil)
	return img, err
}

func (s *ImageService) fetch(ctx context.Context, target string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrImageFetch, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", imageAccept)
	req.Header.Set("Referer", searchReferer)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrImageFetch, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, fmt.Errorf("%w: content type %q is not an image", ErrImageFetch, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrImageFetch, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: image larger than %d bytes", ErrImageFetch, s.maxBytes)
	}

	return &Image{Data: data, ContentType: contentType, SourceURL: target}, nil
}

var imageExtensions = map[string]string{
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/jpg":                ".jpg",
	"image/pjpeg":              ".jpg",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"image/svg+xml":            ".svg",
	"image/avif":               ".avif",
	"image/bmp":                ".bmp",
	"image/tiff":               ".tiff",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
}

// ImageExtension picks the file extension for a downloaded image: from the content
// type first, then from the source URL path, defaulting to ".png".
func ImageExtension(contentType, sourceURL string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := imageExtensions[strings.ToLower(mediaType)]; ok {
			return ext
		}
	}

	if u, err := url.Parse(sourceURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if isPlainExtension(ext) {
			return ext
		}
	}

	return ".png"
}

func isPlainExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
