package errors

import "strconv"

// ErrorCode is the machine-readable code carried by every AppError
type ErrorCode int32

const (
	ErrorCode_HTTP_OK          ErrorCode = 0
	ErrorCode_INTERNAL         ErrorCode = 1
	ErrorCode_INVALID_ARGUMENT ErrorCode = 2
	ErrorCode_NOT_FOUND        ErrorCode = 3
	ErrorCode_ALREADY_EXISTS   ErrorCode = 4
	ErrorCode_FORBIDDEN        ErrorCode = 5
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 6

	// Session
	ErrorCode_SESSION_NOT_FOUND      ErrorCode = 100
	ErrorCode_SESSION_INVALID_STATE  ErrorCode = 101
	ErrorCode_SUBMISSION_IN_PROGRESS ErrorCode = 102
	ErrorCode_ANALYSIS_NOT_READY     ErrorCode = 103
	ErrorCode_NOTHING_TO_RETRY       ErrorCode = 104
	ErrorCode_SUBMISSION_DISCARDED   ErrorCode = 105

	// Input
	ErrorCode_INPUT_VALIDATION  ErrorCode = 200
	ErrorCode_INPUT_READ_FAILED ErrorCode = 201
	ErrorCode_INPUT_TOO_LARGE   ErrorCode = 202

	// Analysis
	ErrorCode_AI_ANALYSIS_FAILED  ErrorCode = 300
	ErrorCode_AI_QUOTA_EXCEEDED   ErrorCode = 301
	ErrorCode_AI_RESPONSE_INVALID ErrorCode = 302

	// Export
	ErrorCode_EXPORT_DISABLED ErrorCode = 400
	ErrorCode_EXPORT_FAILED   ErrorCode = 401

	// Integration
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 500
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_FORBIDDEN:                  "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_SESSION_NOT_FOUND:          "SESSION_NOT_FOUND",
	ErrorCode_SESSION_INVALID_STATE:      "SESSION_INVALID_STATE",
	ErrorCode_SUBMISSION_IN_PROGRESS:     "SUBMISSION_IN_PROGRESS",
	ErrorCode_ANALYSIS_NOT_READY:         "ANALYSIS_NOT_READY",
	ErrorCode_NOTHING_TO_RETRY:           "NOTHING_TO_RETRY",
	ErrorCode_SUBMISSION_DISCARDED:       "SUBMISSION_DISCARDED",
	ErrorCode_INPUT_VALIDATION:           "INPUT_VALIDATION",
	ErrorCode_INPUT_READ_FAILED:          "INPUT_READ_FAILED",
	ErrorCode_INPUT_TOO_LARGE:            "INPUT_TOO_LARGE",
	ErrorCode_AI_ANALYSIS_FAILED:         "AI_ANALYSIS_FAILED",
	ErrorCode_AI_QUOTA_EXCEEDED:          "AI_QUOTA_EXCEEDED",
	ErrorCode_AI_RESPONSE_INVALID:        "AI_RESPONSE_INVALID",
	ErrorCode_EXPORT_DISABLED:            "EXPORT_DISABLED",
	ErrorCode_EXPORT_FAILED:              "EXPORT_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
}
