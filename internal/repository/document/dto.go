package document

import (
	"encoding/binary"
	"math"
	"strings"

	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
)

const (
	vectorField    = "__vector"
	fieldPrefix    = "f:"
	metadataPrefix = "m:"
)

// buildHashFields flattens a document into a map for HSET.
func buildHashFields(doc *domdoc.Document) map[string]string {
	m := make(map[string]string, 1+len(doc.Fields())+len(doc.Metadata()))
	m[vectorField] = vectorToBytes(doc.Vector())
	for k, v := range doc.Fields() {
		m[fieldPrefix+k] = v
	}
	for k, v := range doc.Metadata() {
		m[metadataPrefix+k] = v
	}
	return m
}

// parseHashFields rebuilds a document from its hash. Unknown keys are ignored.
func parseHashFields(id string, m map[string]string) domdoc.Document {
	var vector []float32
	fields := make(map[string]string)
	metadata := make(map[string]string)

	for k, v := range m {
		switch {
		case k == vectorField:
			vector = bytesToVector(v)
		case strings.HasPrefix(k, fieldPrefix):
			fields[strings.TrimPrefix(k, fieldPrefix)] = v
		case strings.HasPrefix(k, metadataPrefix):
			metadata[strings.TrimPrefix(k, metadataPrefix)] = v
		}
	}

	return domdoc.Reconstruct(id, fields, metadata, vector)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	if len(s)%4 != 0 {
		return nil
	}
	b := []byte(s)
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
