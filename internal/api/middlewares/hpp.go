package middlewares

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
)

type HPPOptions struct {
	CheckQuery                  bool
	CheckBody                   bool
	CheckBodyOnlyForContentType string
	Whitelist                   []string
}

// HPP collapses repeated parameters to their first value and drops
// parameters outside the whitelist.
func HPP(opts HPPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.CheckBody && r.Method == http.MethodPost && isCorrectContentType(r, opts.CheckBodyOnlyForContentType) {
				filterBodyParams(r, opts.Whitelist)
			}
			if opts.CheckQuery && r.URL.RawQuery != "" {
				filterQueryParams(r, opts.Whitelist)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isCorrectContentType(r *http.Request, contentType string) bool {
	return strings.Contains(r.Header.Get("Content-Type"), contentType)
}

func filterBodyParams(r *http.Request, whitelist []string) {
	if err := r.ParseForm(); err != nil {
		return
	}
	for k, v := range r.Form {
		if len(v) > 1 {
			r.Form.Set(k, v[0])
		}
		if !lo.Contains(whitelist, k) {
			delete(r.Form, k)
		}
	}
}

func filterQueryParams(r *http.Request, whitelist []string) {
	query := r.URL.Query()
	for k, v := range query {
		if len(v) > 1 {
			query.Set(k, v[0])
		}
		if !lo.Contains(whitelist, k) {
			query.Del(k)
		}
	}
	r.URL.RawQuery = query.Encode()
}

// DefaultHPPOptions whitelists the query parameters read by the list
// endpoints: book filters, the admin role filter and pagination.
func DefaultHPPOptions() HPPOptions {
	return HPPOptions{
		CheckQuery:                  true,
		CheckBody:                   true,
		CheckBodyOnlyForContentType: "application/x-www-form-urlencoded",
		Whitelist: []string{
			"title", "author", "publication_year",
			"search", "ordering",
			"role",
			"limit", "offset",
		},
	}
}
