package models

// VerifyRequest is the body of POST /verify
type VerifyRequest struct {
	OriginalCode string `json:"originalCode"`
	PatchedCode  string `json:"patchedCode"`
	Language     string `json:"language"`
}

// VerifyResponse is the body returned by POST /verify
type VerifyResponse struct {
	Status  string   `json:"status"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}
