package models

// RAGQueryRequest is the body of POST /rag/query.
type RAGQueryRequest struct {
	Query string `json:"query"`
}

// RAGResponse carries generated text.
type RAGResponse struct {
	Recommendation string `json:"recommendation"`
}
