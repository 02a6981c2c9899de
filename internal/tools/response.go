package tools

// Status is the lifecycle state of a tool execution.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
)

// Response is the fixed-shape result of a tool execution.
// Invariant: Success=true implies Status=success; Success=false implies
// Status is failed or timeout. ExecutionTime is overwritten by the manager
// with the wall-clock latency it observed.
type Response struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Data          map[string]any `json:"data,omitempty"`
	Status        Status         `json:"status"`
	ExecutionTime float64        `json:"execution_time"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	BreakLoop     bool           `json:"break_loop,omitempty"`
}

// Ok builds a successful response.
func Ok(message string, data map[string]any) *Response {
	return &Response{
		Success: true,
		Message: message,
		Data:    data,
		Status:  StatusSuccess,
	}
}

// Fail builds a failed response.
func Fail(message string) *Response {
	return &Response{
		Success: false,
		Message: message,
		Status:  StatusFailed,
	}
}

// TimedOut builds a timed-out response.
func TimedOut(message string) *Response {
	return &Response{
		Success: false,
		Message: message,
		Status:  StatusTimeout,
	}
}

// Normalize enforces the Success/Status invariant in place and returns r.
func (r *Response) Normalize() *Response {
	if r.Success {
		r.Status = StatusSuccess
		return r
	}
	if r.Status != StatusFailed && r.Status != StatusTimeout {
		r.Status = StatusFailed
	}
	return r
}
