package httpapi

// Result is the envelope of every JSON response.
//   - code: ResultSuccess = 2000, ResultError = -1
//   - type: 'success' | 'error' | 'warning'
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// OkMessage is Ok with a caller-facing message. A non-nil warning replaces
// the message and turns the type into "warning"; the call still succeeded.
func OkMessage[T any](result T, message string, warning *string) Result[T] {
	r := Result[T]{Code: ResultSuccess, Type: "success", Message: message, Result: result}
	if warning != nil {
		r.Type = "warning"
		r.Message = *warning
	}
	return r
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

// ErrorDetail is the result payload of a failed call.
type ErrorDetail struct {
	Error     string `json:"error"`
	StartedBy string `json:"started_by,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
}
