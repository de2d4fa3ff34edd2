package core

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"
)

// Params carries operation parameters as loosely typed key/value pairs.
// Callers pass extra exchange-specific keys through untouched.
type Params map[string]any

// Clone returns a shallow copy so callers can mutate without aliasing.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Encode renders the parameters as a URL query string with keys in
// sorted order, so the same parameters always produce the same string.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range p {
		values.Set(k, FormatParam(v))
	}
	return values.Encode()
}

// MergeParams overlays caller-supplied extras onto required parameters.
// Required keys win on collision, so callers cannot clobber the fields
// an operation depends on.
func MergeParams(required, extra Params) Params {
	out := extra.Clone()
	maps.Copy(out, required)
	return out
}

// FormatParam renders a parameter value the way it should appear in a
// query string or path segment.
func FormatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case interface{ String() string }:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ExpandPath substitutes {name} placeholders in a path template with the
// matching parameter values and returns the resolved path together with
// the parameters that were not consumed by a placeholder. Placeholders
// with no matching parameter are left in place.
func ExpandPath(path string, params Params) (string, Params) {
	remaining := params.Clone()
	for k, v := range params {
		placeholder := "{" + k + "}"
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(FormatParam(v)))
			delete(remaining, k)
		}
	}
	return path, remaining
}

// Request is a fully assembled HTTP request descriptor, ready to send.
//
// Path carries the query string for GET requests and Body carries the
// exact serialized payload for write requests. Private requests are
// signed over these same bytes, so the transport must transmit them
// verbatim.
type Request struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body,omitempty"`
	Auth    bool              `json:"auth"`
}

// NewRequest creates a request descriptor for the given method and path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}
}

// SetHeader sets a header and returns the request for chaining.
func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// SetBody sets the serialized payload and returns the request for chaining.
func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

// SetAuth marks the request as authenticated and returns it for chaining.
func (r *Request) SetAuth(auth bool) *Request {
	r.Auth = auth
	return r
}
