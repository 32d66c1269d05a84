package dto

import "time"

// APIResponse is the envelope for every JSON endpoint
type APIResponse struct {
	Success   bool         `json:"success" example:"true"`
	Message   string       `json:"message,omitempty"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewSuccessResponse wraps data in a successful envelope
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data, Timestamp: time.Now()}
}

// NewFailureResponse wraps an error detail in a failed envelope
func NewFailureResponse(detail *ErrorDetail) APIResponse {
	return APIResponse{Success: false, Error: detail, Timestamp: time.Now()}
}

// SuccessResponse represents a plain acknowledgement
type SuccessResponse struct {
	Message string `json:"message"`
}

// PaginationInfo represents pagination metadata
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
}

// ProfileCompletionResponse reports the weighted profile score
type ProfileCompletionResponse struct {
	Score         int      `json:"score" example:"85"`
	Threshold     int      `json:"threshold" example:"80"`
	CanSubmit     bool     `json:"canSubmit"`
	MissingFields []string `json:"missingFields"`
}

// ProfileIncompleteResponse is returned when submission is blocked by the profile gate.
// Clients use requiresProfileCompletion to redirect instead of only showing the error.
type ProfileIncompleteResponse struct {
	Success                   bool                      `json:"success" example:"false"`
	Error                     *ErrorDetail              `json:"error"`
	RequiresProfileCompletion bool                      `json:"requiresProfileCompletion" example:"true"`
	BlockingReasons           []string                  `json:"blockingReasons" example:"PROFILE_INCOMPLETE"`
	ProfileCompletion         ProfileCompletionResponse `json:"profileCompletion"`
	Timestamp                 time.Time                 `json:"timestamp"`
}
