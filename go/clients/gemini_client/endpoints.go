package gemini_client

const (
	// Base URL
	BaseURL = "https://generativelanguage.googleapis.com"

	// API Endpoints
	GenerateContentEndpoint = "/v1beta/models/%s:generateContent"

	// Models
	DefaultModel = "gemini-3-flash-preview"

	// Headers
	APIKeyHeader    = "x-goog-api-key"
	JsonHeader      = "Content-Type"
	JsonContentType = "application/json"
)
