package dto

// Response is the envelope of every API answer.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the error half of the envelope. RequestID repeats the
// X-Request-ID header so callers can quote it when reporting a failure.
type ErrorInfo struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	RequestID string       `json:"request_id,omitempty"`
	Details   []FieldError `json:"details,omitempty"`
}

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func OK(data any) Response {
	return Response{Success: true, Data: data}
}

func Fail(code, message, requestID string) Response {
	return Response{Error: &ErrorInfo{Code: code, Message: message, RequestID: requestID}}
}

// WithDetails attaches per-field errors to a failure.
func (r Response) WithDetails(details []FieldError) Response {
	if r.Error != nil {
		r.Error.Details = details
	}
	return r
}
