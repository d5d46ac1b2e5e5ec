package types

const (
	EngineVector  = "vector"
	EngineSummary = "summary"
)

// AskRequest is a one-shot question over the indexed papers
type AskRequest struct {
	Question string   `json:"question"`
	Title    string   `json:"title,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	TopK     int      `json:"top_k,omitempty"`
}

// QueryResult is the outcome of a routed query
type QueryResult struct {
	Answer  string     `json:"answer"`
	Engine  string     `json:"engine"`
	Sources []Document `json:"sources,omitempty"`
}

// RouteDecision is the selector verdict parsed from the model output
type RouteDecision struct {
	Choice int    `json:"choice"`
	Reason string `json:"reason"`
}
