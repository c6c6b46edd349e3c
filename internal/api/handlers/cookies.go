package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/hugh/lead-hunter/internal/api/dto"
	"github.com/hugh/lead-hunter/internal/api/middleware"
)

// UserCookie carries the public profile for the browser client.
const UserCookie = "user"

// SessionCookies writes the token and user cookies. Outside development the
// cookies are cross-site (SameSite=None, Secure) and scoped to Domain.
type SessionCookies struct {
	Development bool
	Domain      string
	MaxAge      time.Duration
}

func (c SessionCookies) base(name, value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
	}
	if c.Development {
		cookie.SameSite = http.SameSiteLaxMode
	} else {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
		cookie.Domain = c.Domain
	}
	return cookie
}

func (c SessionCookies) Set(w http.ResponseWriter, token string, user dto.UserDTO) {
	maxAge := int(c.MaxAge.Seconds())
	http.SetCookie(w, c.base(middleware.TokenCookie, token, maxAge))

	profile, _ := json.Marshal(user)
	http.SetCookie(w, c.base(UserCookie, url.QueryEscape(string(profile)), maxAge))
}

func (c SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.base(middleware.TokenCookie, "", -1))
	http.SetCookie(w, c.base(UserCookie, "", -1))
}
