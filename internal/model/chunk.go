package model

import "strconv"

// SectionType classifies a case-law chunk by its content role.
type SectionType string

const (
	SectionOverview  SectionType = "overview"
	SectionSummary   SectionType = "summary"
	SectionReasoning SectionType = "reasoning"
	SectionReference SectionType = "reference"
	SectionGeneral   SectionType = "general"
)

// Chunk is a retrievable unit derived from a Document by the chunker.
// It carries enough metadata to reconstruct provenance (spec §3).
type Chunk struct {
	Text        string
	ParentID    string
	ChunkIndex  int
	ParentKind  Kind
	IsHeader    bool
	Metadata    map[string]interface{}
}

// ID returns the vector-store id for this chunk: parent_id + "_chunk_" + index.
func (c Chunk) ID() string {
	return c.ParentID + "_chunk_" + strconv.Itoa(c.ChunkIndex)
}
