// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package edge

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/tomtom215/authzgate/internal/policy"
)

// BuildInput derives the policy input from r. Header names are lowercased
// and repeated values joined with ", ". subjectHeader may be empty.
func BuildInput(r *http.Request, subjectHeader string) policy.Input {
	full := requestURL(r)

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	in := policy.Input{
		Method:  r.Method,
		Path:    full.Path,
		URL:     full.String(),
		Host:    full.Host,
		Query:   full.Query(),
		Headers: headers,
	}
	if subjectHeader != "" {
		in.Subject = r.Header.Get(subjectHeader)
	}
	return in
}

// requestURL reconstructs the absolute URL the client requested.
func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	u := &url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u
}
