package handler

import "net/http"

type redirectResponse struct {
	url  string
	code int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	http.Redirect(w, req, r.url, r.code)
	return nil
}

// Redirect answers with 302 Found.
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusFound}
}

// RedirectWithCode accepts any 3xx code.
func RedirectWithCode(url string, code int) Response {
	return redirectResponse{url: url, code: code}
}
