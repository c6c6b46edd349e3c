package dto

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type DeleteResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}
