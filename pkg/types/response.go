package types

// SuccessEnvelope wraps every 2xx body the storefront returns. Controllers
// put their view DTO under data so clients have one stable shape to parse.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a coded error. Code matches pkg/errors
// codes; Details carries field-level validation messages when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
