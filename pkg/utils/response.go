package utils

// ResponseData is the JSON envelope returned by every API endpoint.
// Status only drives the HTTP status code and is not serialized.
type ResponseData struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}
