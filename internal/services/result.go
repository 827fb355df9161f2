package services

// FailureReason classifies an expected business-rule failure so HTTP
// handlers can pick a status code without string matching.
type FailureReason string

const (
	ReasonNone              FailureReason = ""
	ReasonNotFound          FailureReason = "not_found"
	ReasonClosed            FailureReason = "registration_closed"
	ReasonFull              FailureReason = "event_full"
	ReasonDeadlinePassed    FailureReason = "deadline_passed"
	ReasonAlreadyRegistered FailureReason = "already_registered"
	ReasonInternal          FailureReason = "internal"
)

// Result is the outcome of a registration operation. Business-rule
// failures come back as unsuccessful results, never as errors.
type Result struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Reason  FailureReason `json:"-"`
	Data    interface{}   `json:"data,omitempty"`
}

func success(message string, data interface{}) Result {
	return Result{Success: true, Message: message, Data: data}
}

func failure(reason FailureReason, message string) Result {
	return Result{Success: false, Message: message, Reason: reason}
}
