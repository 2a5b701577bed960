package models

// ErrorResponse is the body returned by every failed API call.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// BrowserStats reports the state of the shared browser process.
type BrowserStats struct {
	ActiveSessions int `json:"active_sessions"`
	OpenPages      int `json:"open_pages"`
}
