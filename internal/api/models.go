package api

// ProblemDetail is an RFC 7807 error response body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// RunAgentRequest is the body of POST /api/v1/agents/:name/run.
type RunAgentRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// RunAgentResponse wraps a successful stage result.
type RunAgentResponse struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
	Result    any    `json:"result"`
}

// SetTaskStatusRequest is the body of PUT /api/v1/projects/:id/tasks/:taskID.
type SetTaskStatusRequest struct {
	Status string `json:"status"`
}

// RenameProjectRequest is the body of PUT /api/v1/projects/:id/name.
type RenameProjectRequest struct {
	Name string `json:"name"`
}
