package claim

import (
	"context"
	"errors"
	"testing"
)

type fakeFetcher struct {
	body string
	err  error
}

func (f fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.body, f.err
}

func newTestVerifier(f Fetcher) *Verifier {
	return &Verifier{Domains: DefaultDomains, Fetcher: f, FetchContent: true}
}

func TestVerify_RejectsBadURL(t *testing.T) {
	v := newTestVerifier(fakeFetcher{})
	if err := v.Verify(context.Background(), "not a url", "http://localhost/agents/a1"); !errors.Is(err, ErrBadURL) {
		t.Fatalf("expected ErrBadURL, got %v", err)
	}
	if err := v.Verify(context.Background(), "ftp://bsky.app/post/1", "http://localhost/agents/a1"); !errors.Is(err, ErrBadURL) {
		t.Fatalf("expected ErrBadURL for non-http scheme, got %v", err)
	}
}

func TestVerify_RejectsUnknownDomain(t *testing.T) {
	v := newTestVerifier(fakeFetcher{body: Hashtag})
	err := v.Verify(context.Background(), "https://evil.example.com/post/1", "http://localhost/agents/a1")
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}
}

func TestVerify_SubdomainWildcard(t *testing.T) {
	v := &Verifier{Domains: []string{"*.bsky.app"}, Fetcher: fakeFetcher{err: errors.New("blocked")}, FetchContent: true}
	if err := v.Verify(context.Background(), "https://staging.bsky.app/post/1", "http://localhost/agents/a1"); err != nil {
		t.Fatalf("expected subdomain to pass domain check, got %v", err)
	}
	if err := v.Verify(context.Background(), "https://bsky.app.evil.com/post/1", "http://localhost/agents/a1"); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected lookalike suffix to fail, got %v", err)
	}
}

func TestVerify_ContentChecks(t *testing.T) {
	profile := "http://localhost/agents/a1"

	good := newTestVerifier(fakeFetcher{body: "claiming my agent " + profile + " " + Hashtag})
	if err := good.Verify(context.Background(), "https://bsky.app/profile/x/post/1", profile); err != nil {
		t.Fatalf("expected valid proof to pass, got %v", err)
	}

	noTag := newTestVerifier(fakeFetcher{body: "claiming my agent " + profile})
	if err := noTag.Verify(context.Background(), "https://bsky.app/profile/x/post/1", profile); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker, got %v", err)
	}

	noProfile := newTestVerifier(fakeFetcher{body: "random post " + Hashtag})
	if err := noProfile.Verify(context.Background(), "https://bsky.app/profile/x/post/1", profile); !errors.Is(err, ErrMissingOwner) {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
}

func TestVerify_LenientOnFetchFailure(t *testing.T) {
	v := newTestVerifier(fakeFetcher{err: errors.New("scraping blocked")})
	if err := v.Verify(context.Background(), "https://x.com/u/status/1", "http://localhost/agents/a1"); err != nil {
		t.Fatalf("expected lenient pass on fetch failure, got %v", err)
	}
}

func TestVerify_FetchDisabledStillChecksDomain(t *testing.T) {
	v := &Verifier{Domains: DefaultDomains, Fetcher: fakeFetcher{}, FetchContent: false}
	if err := v.Verify(context.Background(), "https://bsky.app/post/1", "p"); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if err := v.Verify(context.Background(), "https://example.com/post/1", "p"); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}
}
