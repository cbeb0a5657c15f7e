package message

const (
	InvalidInput      = "Invalid input."
	InvalidToken      = "Invalid or missing access token."
	EnvErrFmt         = "environment variable is not set: %s"
	SessionNotFound   = "Session not found"
	SessionDeleted    = "Session deleted successfully"
	DocumentNotFound  = "Document not found"
	DocumentIngested  = "Document ingested successfully"
	DocumentDeleted   = "Document deleted successfully"
	LLMUnavailable    = "The language model is unavailable. Please try again later."
	StoreUnavailable  = "The document store is unavailable. Please try again later."
	TooManyRequests   = "Too many requests. Please slow down."
	UnsupportedFormat = "Unsupported document format."
	APIRunning        = "API is running"
)
