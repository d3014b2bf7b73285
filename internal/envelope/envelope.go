package envelope

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Response codes used by the installer. Any code in [200, 300) is a success.
const (
	CodeOK                  = 200
	CodeBadRequest          = 400
	CodeForbidden           = 403
	CodeNotFound            = 404
	CodeConflict            = 409
	CodeUnprocessable       = 422
	CodeInternalServerError = 500
	CodeBadGateway          = 502
	CodeServiceUnavailable  = 503
)

// Data is the optional structured payload of a Response.
type Data map[string]any

// Request is one action invocation. It is built once per call and never
// mutated after it has been sent.
type Request struct {
	Action Action
	Params Params
}

// NewRequest copies params so later changes by the caller do not leak into the
// request.
func NewRequest(action Action, params map[string]string) Request {
	p := make(Params, len(params))
	for k, v := range params {
		p[k] = v
	}
	return Request{Action: action, Params: p}
}

// Form encodes the request as the form body sent to the server.
func (r Request) Form() url.Values {
	form := url.Values{}
	form.Set("action", string(r.Action))
	for k, v := range r.Params {
		form.Set(k, v)
	}
	return form
}

// Response is the uniform result of every action.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    Data   `json:"data,omitempty"`
}

// OK returns a success response.
func OK(message string, data Data) *Response {
	return &Response{Code: CodeOK, Message: message, Data: data}
}

// Fail returns a failure response. Codes outside the failure range are coerced
// to 500 so a failure can never be mistaken for a success.
func Fail(code int, message string) *Response {
	if IsSuccess(code) || code <= 0 {
		code = CodeInternalServerError
	}
	return &Response{Code: code, Message: message}
}

// FromError converts any error into a failure response, keeping the code of a
// CodedError and defaulting to 500 otherwise.
func FromError(err error) *Response {
	return Fail(CodeOf(err), err.Error())
}

// IsSuccess reports whether code denotes success.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// Success reports whether the response denotes success.
func (r *Response) Success() bool {
	return r != nil && IsSuccess(r.Code)
}

// String returns the nested string at path, or "" when absent.
func (d Data) String(path ...string) string {
	v := d.lookup(path)
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Map returns the nested object at path as a string map.
func (d Data) Map(path ...string) map[string]string {
	out := map[string]string{}
	switch t := d.lookup(path).(type) {
	case map[string]any:
		for k, v := range t {
			out[k] = fmt.Sprint(v)
		}
	case Data:
		for k, v := range t {
			out[k] = fmt.Sprint(v)
		}
	case map[string]string:
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}

// Strings returns the nested list at path as strings.
func (d Data) Strings(path ...string) []string {
	var out []string
	switch t := d.lookup(path).(type) {
	case []any:
		for _, v := range t {
			out = append(out, fmt.Sprint(v))
		}
	case []string:
		out = append(out, t...)
	}
	return out
}

func (d Data) lookup(path []string) any {
	var cur any = map[string]any(d)
	for _, key := range path {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[key]
		case Data:
			cur = m[key]
		default:
			return nil
		}
	}
	return cur
}

// Decode parses a JSON response body. Bodies that are not a JSON object with a
// numeric code are rejected.
func Decode(body []byte) (*Response, error) {
	var raw struct {
		Code    *json.Number `json:"code"`
		Message string       `json:"message"`
		Data    any          `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if raw.Code == nil {
		return nil, fmt.Errorf("decode response: missing code")
	}
	code, err := raw.Code.Int64()
	if err != nil {
		return nil, fmt.Errorf("decode response: invalid code %q", raw.Code.String())
	}
	resp := &Response{Code: int(code), Message: raw.Message}
	if m, ok := raw.Data.(map[string]any); ok {
		resp.Data = Data(m)
	}
	return resp, nil
}
