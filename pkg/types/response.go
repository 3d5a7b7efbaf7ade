package types

// SuccessEnvelope is the JSON body for every 2xx response.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Page    *int   `json:"page,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
	Count   *int64 `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorEnvelope is the JSON body for every non-2xx response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
