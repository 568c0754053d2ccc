package models

// MediaRequest is the body of POST /media. FlowchartData is either a JSON
// object or a string holding one (possibly wrapped in markdown fences).
type MediaRequest struct {
	FlowchartData interface{} `json:"flowchartData"`
}

// MediaResponse is the body returned by POST /media
type MediaResponse struct {
	Status   string `json:"status"`
	ImageURL string `json:"imageUrl"`
	Message  string `json:"message"`
}
