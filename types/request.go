package types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type PaginateRequest struct {
	Page  int64 `form:"page" json:"page"`
	Limit int64 `form:"limit" json:"limit"`
}

type SearchRequest struct {
	Queries []string `json:"queries"`
	Title   string   `json:"title,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// AskAIRequest asks the vector store's generative module to answer over the
// retrieved chunks
type AskAIRequest struct {
	Question      string        `json:"question"`
	SearchRequest SearchRequest `json:"search_request"`
}
