package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type PaginateResponse struct {
	Total    int64       `json:"total"`
	Elements interface{} `json:"elements"`
	Page     int64       `json:"page"`
	Limit    int64       `json:"limit"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type UploadResponse struct {
	OriginalName string `json:"original_name,omitempty"`
	Chunks       int    `json:"chunks,omitempty"`
}

type SearchResponse struct {
	Documents []Document `json:"documents"`
}

type ProcessingDocumentStatus struct {
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	Progress       float64 `json:"progress"`
	TotalPages     int     `json:"total_pages"`
	ProcessedPages int     `json:"processed_pages"`
}
