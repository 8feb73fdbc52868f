package types

// RunSummary describes one inference run.
type RunSummary struct {
	Target    string        `json:"target"`
	Files     int           `json:"files"`
	Documents int           `json:"documents"`
	Skipped   []SkippedFile `json:"skipped,omitzero"`
}

// SkippedFile is a file or document left out of a run.
type SkippedFile struct {
	Path     string `json:"path"`
	Document int    `json:"document"` // -1 when the whole file was skipped
	Reason   string `json:"reason"`
}

// InferSchemaOutput is the output of the dredger_infer_schema tool.
type InferSchemaOutput struct {
	RunID   string      `json:"run_id"`
	Summary RunSummary  `json:"summary"`
	Schema  []SchemaRow `json:"schema,omitzero"`
	Hint    string      `json:"hint,omitempty"`
}

// FindDocumentsOutput is the output of the dredger_find_documents tool.
type FindDocumentsOutput struct {
	RunID     string        `json:"run_id"`
	Path      string        `json:"path"`
	Missing   bool          `json:"missing"`
	DataType  string        `json:"data_type,omitempty"`
	Total     int           `json:"total"`
	Documents []DocumentRef `json:"documents,omitzero"`
	Types     []TypeCount   `json:"types,omitzero"` // per-type document counts for attributes
	Truncated bool          `json:"truncated,omitempty"`
}

// DocumentRef identifies one document of a run.
type DocumentRef struct {
	File     string `json:"file"`
	Position int    `json:"position"`
}

// TypeCount is the number of documents in which an attribute had a type.
type TypeCount struct {
	DataType  string `json:"data_type"`
	Documents int    `json:"documents"`
}

// ExportJSONSchemaOutput is the output of the dredger_export_jsonschema tool.
type ExportJSONSchemaOutput struct {
	RunID  string `json:"run_id"`
	Schema any    `json:"schema"`
}
