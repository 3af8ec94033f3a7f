package handler

import "net/http"

type cookieResponse struct {
	next    Response
	cookies []*http.Cookie
}

func (c cookieResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for _, cookie := range c.cookies {
		http.SetCookie(w, cookie)
	}
	return c.next.Render(w, r)
}

// WithCookies sets cookies before next writes its status line.
func WithCookies(next Response, cookies ...*http.Cookie) Response {
	return cookieResponse{next: next, cookies: cookies}
}
