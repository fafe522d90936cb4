package result

// Result is a single ranked hit. Similarity is cosine similarity in [-1, 1].
type Result struct {
	id         string
	similarity float64
	fields     map[string]string
	metadata   map[string]string
}

// New creates a search result.
func New(id string, similarity float64, fields, metadata map[string]string) Result {
	return Result{id: id, similarity: similarity, fields: fields, metadata: metadata}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Similarity returns the cosine similarity against the query.
func (r *Result) Similarity() float64 { return r.similarity }

// Fields returns the document fields.
func (r *Result) Fields() map[string]string { return r.fields }

// Field returns a single document field or "".
func (r *Result) Field(name string) string { return r.fields[name] }

// Metadata returns the document metadata.
func (r *Result) Metadata() map[string]string { return r.metadata }
