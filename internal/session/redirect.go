package session

import (
	"net/url"
	"strings"

	"github.com/drstein77/shopsphere/internal/models"
)

const (
	rootPath  = "/"
	loginPath = "/login"
)

var authPages = []string{"/login", "/signup", "/callback", "/error"}

// Location is the page the browser was on when authentication finished
type Location struct {
	Path  string
	Query string // raw query without the leading '?'
}

// Current is the path plus query, as used for redirect parameters
func (l Location) Current() string {
	if l.Query == "" {
		return l.Path
	}
	return l.Path + "?" + l.Query
}

func (l Location) redirectParam() string {
	values, err := url.ParseQuery(l.Query)
	if err != nil {
		return ""
	}
	if target := values.Get("redirect"); sameSite(target) {
		return target
	}
	return ""
}

// sameSite accepts only paths inside the application: no scheme, no host and
// no protocol-relative prefix.
func sameSite(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// IsAuthPage reports whether the location belongs to the login/signup flow.
func (l Location) IsAuthPage() bool {
	current := l.Current()
	for _, p := range authPages {
		if strings.Contains(current, p) {
			return true
		}
	}
	return false
}

// Redirect decides where to navigate after an authentication attempt.
//
// Only same-site paths are ever returned.
// With a user: the redirect query parameter wins, then the current page unless
// it is an auth page, then the catalog root.
// Without a user: pages outside the auth flow go to login carrying the current
// page as redirect parameter; auth pages stay where they are.
func Redirect(loc Location, user *models.User) string {
	if user != nil {
		if target := loc.redirectParam(); target != "" {
			return target
		}
		if !loc.IsAuthPage() && sameSite(loc.Current()) {
			return loc.Current()
		}
		return rootPath
	}

	if !loc.IsAuthPage() {
		current := loc.Current()
		if current == "" || current == rootPath || !sameSite(current) {
			return loginPath
		}
		return loginPath + "?redirect=" + url.QueryEscape(current)
	}
	if !sameSite(loc.Current()) {
		return loginPath
	}
	return loc.Current()
}
