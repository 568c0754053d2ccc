package models

// SliceRequest is the body of POST /slice
type SliceRequest struct {
	FilePath string `json:"filePath"`
	Query    string `json:"query" binding:"required"`
}

// Slice is one raw result returned by the graph engine
type Slice struct {
	Raw string `json:"raw"`
}

// SliceResponse is the body returned by POST /slice
type SliceResponse struct {
	Status  string  `json:"status"`
	Slices  []Slice `json:"slices"`
	Message string  `json:"message"`
}
