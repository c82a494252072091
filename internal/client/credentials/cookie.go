package credentials

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/repositories/metadata"
)

// cookiePrefix namespaces persisted cookies in the metadata repository.
const cookiePrefix = "cookie."

// CookieOptions names the cookies the backend uses.
type CookieOptions struct {
	CSRFCookie    string // anti-forgery cookie mirrored into a request header
	SessionCookie string // session marker
}

// CookieStore keeps the backend's cookies in a jar shared with the HTTP
// client. The CSRF token is simply the value of the CSRF cookie.
type CookieStore struct {
	mu   sync.Mutex // serialises writers; the jar has its own locking
	jar  *resettableJar
	base *url.URL
	opts CookieOptions
	repo metadata.Repository
}

func NewCookieStore(base *url.URL, repo metadata.Repository, opts CookieOptions) (*CookieStore, error) {
	jar, err := newResettableJar()
	if err != nil {
		return nil, err
	}
	return &CookieStore{jar: jar, base: rootURL(base), opts: opts, repo: repo}, nil
}

// Jar is handed to the http.Client so Set-Cookie responses land here.
func (s *CookieStore) Jar() http.CookieJar { return s.jar }

func (s *CookieStore) Kind() Kind { return KindCSRF }

// Token reports the CSRF token and a snapshot of the backend's cookies. It
// reports a credential when either the CSRF cookie or the session cookie is
// held; CSRFToken is empty when only the session cookie is.
func (s *CookieStore) Token() (Credential, bool) {
	cookies := s.jar.Cookies(s.base)
	csrf, _ := find(cookies, s.opts.CSRFCookie)
	session, _ := find(cookies, s.opts.SessionCookie)
	if csrf == "" && session == "" {
		return Credential{}, false
	}
	return Credential{Kind: KindCSRF, CSRFToken: csrf, Session: cookies}, true
}

func (s *CookieStore) HasSessionMarker() bool {
	v, ok := find(s.jar.Cookies(s.base), s.opts.SessionCookie)
	return ok && v != ""
}

// SetToken overwrites the CSRF cookie when c carries one and persists every
// cookie currently held for the backend. Calling it with an empty credential
// just persists what the server has set.
func (s *CookieStore) SetToken(ctx context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.CSRFToken != "" {
		s.jar.SetCookies(s.base, []*http.Cookie{{Name: s.opts.CSRFCookie, Value: c.CSRFToken, Path: "/"}})
	}

	cookies := s.jar.Cookies(s.base)
	err := s.repo.InTx(ctx, func(ctx context.Context, r metadata.Repository) error {
		if err := r.DeletePrefix(ctx, cookiePrefix); err != nil {
			return err
		}
		for _, ck := range cookies {
			if err := r.Set(ctx, cookiePrefix+ck.Name, []byte(ck.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist cookies: %w", err)
	}
	return nil
}

// Clear empties the jar before touching the persisted copy.
func (s *CookieStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.jar.reset(); err != nil {
		return err
	}
	if err := s.repo.DeletePrefix(ctx, cookiePrefix); err != nil {
		return fmt.Errorf("erase cookies: %w", err)
	}
	return nil
}

func (s *CookieStore) Load(ctx context.Context) error {
	stored, err := s.repo.List(ctx, cookiePrefix)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cookies := make([]*http.Cookie, 0, len(stored))
	for key, value := range stored {
		cookies = append(cookies, &http.Cookie{
			Name:  strings.TrimPrefix(key, cookiePrefix),
			Value: string(value),
			Path:  "/",
		})
	}
	if len(cookies) > 0 {
		s.jar.SetCookies(s.base, cookies)
	}
	return nil
}

func find(cookies []*http.Cookie, name string) (string, bool) {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// rootURL strips the path so cookies are read and written at "/", which is
// where the backend scopes them.
func rootURL(u *url.URL) *url.URL {
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
}

// resettableJar lets Clear drop every cookie at once; cookiejar.Jar has no
// way to enumerate or remove entries.
type resettableJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newResettableJar() (*resettableJar, error) {
	j := &resettableJar{}
	if err := j.reset(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *resettableJar) reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
	return nil
}

func (j *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	jar := j.jar
	j.mu.RUnlock()
	jar.SetCookies(u, cookies)
}

func (j *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	jar := j.jar
	j.mu.RUnlock()
	return jar.Cookies(u)
}
