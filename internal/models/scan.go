package models

import "time"

// CodeRange is an optional selection inside the scanned file
type CodeRange struct {
	StartLine   int  `json:"startLine"`
	EndLine     int  `json:"endLine"`
	StartColumn *int `json:"startColumn,omitempty"`
	EndColumn   *int `json:"endColumn,omitempty"`
}

// ScanRequest is the body of POST /scan
type ScanRequest struct {
	Intent    string     `json:"intent"`
	FilePath  string     `json:"filePath"`
	Language  string     `json:"language"`
	CodeRange *CodeRange `json:"codeRange,omitempty"`
	UserQuery *string    `json:"userQuery,omitempty"`
	Files     []string   `json:"files"`
}

// ScanResponse acknowledges a scan and returns the new session id
type ScanResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	ScanID  string                 `json:"scan_id"`
}

// SessionRecord is the bookkeeping kept for an acknowledged scan
type SessionRecord struct {
	ID        string    `json:"id"`
	FileCount int       `json:"fileCount"`
	Intent    string    `json:"intent"`
	FilePath  string    `json:"filePath"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}
