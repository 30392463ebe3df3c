package e2etest

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// unsafeCookieJar drops the Secure attribute so that the test client keeps the session cookies over plain HTTP.
type unsafeCookieJar struct {
	jar *cookiejar.Jar
}

func newUnsafeCookieJar() (*unsafeCookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	return &unsafeCookieJar{jar: jar}, nil
}

func (j *unsafeCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	insecure := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cc := *c
		cc.Secure = false
		insecure = append(insecure, &cc)
	}
	j.jar.SetCookies(u, insecure)
}

func (j *unsafeCookieJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Cookie returns the named cookie the client would send to u.
func (c *Client) Cookie(name string) (*http.Cookie, bool) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, false
	}
	for _, cookie := range c.client.Jar.Cookies(u) {
		if cookie.Name == name {
			return cookie, true
		}
	}
	return nil, false
}

// ForgetCookie removes the named cookie from the jar as if the browser session ended.
func (c *Client) ForgetCookie(name string) {
	u, err := url.Parse(c.url)
	if err != nil {
		return
	}
	c.client.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: "", Path: "/", MaxAge: -1}}) //nolint:exhaustruct // deletion
}
