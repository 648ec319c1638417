package domain

// RetrievedChunk is a chunk scored against a query and resolved back
// to its document metadata.
type RetrievedChunk struct {
	// DocumentID is the owning document.
	DocumentID string

	// Filename is the display name, or the document ID when the
	// document record is missing.
	Filename string

	// Seq is the chunk sequence number within the document.
	Seq int

	// Page is the source page, nil for unpaginated formats.
	Page *int

	// Text is the chunk content.
	Text string

	// Score is the cosine similarity against the query.
	Score float64
}

// Citation identifies a chunk offered as evidence for an answer.
type Citation struct {
	Filename string `json:"filename"`
	Seq      int    `json:"chunk_id"`
	Page     *int   `json:"page"`
}

// Answer is the result of a grounded question.
type Answer struct {
	// Text is the synthesised answer, or the fixed insufficient
	// evidence response when the confidence gate trips.
	Text string

	// Citations are the unique evidence chunks in retrieval order.
	Citations []Citation

	// Retrieved is the full evidence set the answer was grounded in.
	Retrieved []RetrievedChunk
}
