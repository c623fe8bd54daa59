// Package avatar fetches default profile pictures from a Gravatar-compatible
// endpoint. Fetching is best-effort by contract: callers treat any error as
// "no avatar".
package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultEndpoint = "https://www.gravatar.com/avatar"

	imageSize    = 128
	maxImageSize = 1 << 20 // refuse to embed payloads past 1 MiB
)

// GravatarFetcher resolves an email to an identicon-style default avatar.
type GravatarFetcher struct {
	endpoint string
	client   *http.Client
}

func NewGravatarFetcher(endpoint string) *GravatarFetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &GravatarFetcher{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch downloads the avatar bytes for email, retrying transient failures a
// few times with backoff before giving up.
func (g *GravatarFetcher) Fetch(ctx context.Context, email string) ([]byte, error) {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	url := fmt.Sprintf("%s/%s?d=identicon&s=%d", g.endpoint, hex.EncodeToString(sum[:]), imageSize)

	var body []byte
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("avatar fetch: %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("avatar fetch: %s", resp.Status)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(body) > maxImageSize {
			return fmt.Errorf("avatar too large (> %d bytes)", maxImageSize)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
