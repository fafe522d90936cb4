package document

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/kailas-cloud/campusagent/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@:-]+$`)

// MaxTextSize is the maximum combined size of a document's fields in bytes.
const MaxTextSize = 163840 // 160KB

// Well-known fields of a synced mail message.
const (
	FieldSubject = "subject"
	FieldFrom    = "from"
	FieldBody    = "body"
	FieldDate    = "date"
)

// Document is an indexed document owned by one user (immutable value object).
type Document struct {
	id       string
	fields   map[string]string
	metadata map[string]string
	vector   []float32
}

// New validates and creates a Document without a vector.
// ID: ^[a-zA-Z0-9_.@:-]+$, 1-256 chars. At least one non-empty field is required.
func New(id string, fields, metadata map[string]string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("%w: ID is required", domain.ErrInvalidDocument)
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("%w: ID too long (max 256)", domain.ErrInvalidDocument)
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("%w: ID %q contains invalid characters", domain.ErrInvalidDocument, id)
	}

	size := 0
	for _, v := range fields {
		size += len(v)
	}
	if size == 0 {
		return Document{}, fmt.Errorf("%w: %q has no content", domain.ErrInvalidDocument, id)
	}
	if size > MaxTextSize {
		return Document{}, fmt.Errorf("%w: %q too large (max %d bytes)", domain.ErrInvalidDocument, id, MaxTextSize)
	}

	return Document{id: id, fields: maps.Clone(fields), metadata: maps.Clone(metadata)}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id string, fields, metadata map[string]string, vector []float32) Document {
	return Document{id: id, fields: fields, metadata: metadata, vector: vector}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Fields returns the textual fields.
func (d *Document) Fields() map[string]string { return d.fields }

// Field returns a single field value or "".
func (d *Document) Field(name string) string { return d.fields[name] }

// Metadata returns the derived metadata.
func (d *Document) Metadata() map[string]string { return d.metadata }

// Vector returns the embedding vector.
func (d *Document) Vector() []float32 { return d.vector }

// WithVector returns a copy with the given vector set.
func (d *Document) WithVector(v []float32) Document {
	return Document{id: d.id, fields: d.fields, metadata: d.metadata, vector: v}
}

// WithMetadata returns a copy whose metadata is extended with m.
func (d *Document) WithMetadata(m map[string]string) Document {
	merged := make(map[string]string, len(d.metadata)+len(m))
	maps.Copy(merged, d.metadata)
	maps.Copy(merged, m)
	return Document{id: d.id, fields: d.fields, metadata: merged, vector: d.vector}
}

// IsMail reports whether the document carries mail headers.
func (d *Document) IsMail() bool {
	return d.fields[FieldSubject] != "" || d.fields[FieldFrom] != ""
}

// EmbeddingText renders the text that gets vectorized.
// Mail is rendered as "Subject / From / Body"; other documents as sorted "key: value" lines.
func (d *Document) EmbeddingText() string {
	if d.IsMail() {
		return fmt.Sprintf("Subject: %s\nFrom: %s\nBody: %s",
			d.fields[FieldSubject], d.fields[FieldFrom], d.fields[FieldBody])
	}

	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(d.fields)) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(d.fields[k])
	}
	return b.String()
}
