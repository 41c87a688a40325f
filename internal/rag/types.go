package rag

// Citation is a retrieved document that grounded the answer, in rank order.
type Citation struct {
	// Source is the originating document name.
	Source string `json:"source"`
	// Text is the chunk text that was placed in the prompt.
	Text string `json:"text"`
	// Score is the reranker's relevance score.
	Score float64 `json:"score"`
	// Rank is the presentation position (1-based).
	Rank int `json:"rank"`
}

// AnswerResponse is the result of one pass through the answer pipeline.
type AnswerResponse struct {
	// StandaloneQuery is the history-resolved form of the user's question.
	StandaloneQuery string `json:"standalone_query"`
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Grounded reports which branch produced the answer: true when retrieved
	// context backed it, false when the model answered from general
	// knowledge because no relevant document was found.
	Grounded bool `json:"grounded"`
	// Citations are the documents behind a grounded answer, empty on fallback.
	Citations []Citation `json:"citations"`
	// FollowUps are up to three suggested follow-up questions.
	FollowUps []string `json:"followups"`
}
