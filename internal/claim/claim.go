// Package claim verifies proof-of-social-post URLs used to promote
// pending accounts to active.
package claim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Hashtag is the marker a claim post must contain.
const Hashtag = "#agentbazaar"

// DefaultDomains are the social hosts accepted for proof URLs. A "*."
// prefix admits any subdomain, which covers federated platforms where
// each instance lives on its own host.
var DefaultDomains = []string{
	"bsky.app",
	"*.bsky.app",
	"twitter.com",
	"x.com",
	"threads.net",
	"mastodon.social",
	"*.mastodon.social",
}

var (
	ErrBadURL        = errors.New("proof url is not a valid http(s) url")
	ErrDomain        = errors.New("proof url domain is not an accepted social platform")
	ErrMissingMarker = errors.New("post does not contain the required hashtag")
	ErrMissingOwner  = errors.New("post does not reference the claiming account")
)

// Fetcher retrieves the text content of a proof page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type httpFetcher struct {
	client *http.Client
}

func (f httpFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("proof fetch status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type Verifier struct {
	Domains []string
	Fetcher Fetcher
	// FetchContent toggles the page-content check. The URL-domain check
	// always applies.
	FetchContent bool
}

func NewVerifier(fetchContent bool) *Verifier {
	return &Verifier{
		Domains:      DefaultDomains,
		Fetcher:      httpFetcher{client: &http.Client{Timeout: 10 * time.Second}},
		FetchContent: fetchContent,
	}
}

// Verify checks a proof URL for an account whose public profile lives at
// profileURL. Domain and marker violations are hard failures. A
// transport failure fetching the page passes leniently: social platforms
// routinely block scrapers and that must not strand legitimate claims.
func (v *Verifier) Verify(ctx context.Context, proofURL, profileURL string) error {
	u, err := url.Parse(proofURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrBadURL
	}
	if !v.domainAllowed(u.Hostname()) {
		return ErrDomain
	}

	if !v.FetchContent {
		return nil
	}

	body, err := v.Fetcher.Fetch(ctx, proofURL)
	if err != nil {
		log.Printf("claim: proof fetch failed for %s, accepting leniently: %v", proofURL, err)
		return nil
	}

	lower := strings.ToLower(body)
	if !strings.Contains(lower, Hashtag) {
		return ErrMissingMarker
	}
	if !strings.Contains(lower, strings.ToLower(profileURL)) {
		return ErrMissingOwner
	}
	return nil
}

func (v *Verifier) domainAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, d := range v.Domains {
		if suffix, ok := strings.CutPrefix(d, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == d {
			return true
		}
	}
	return false
}
