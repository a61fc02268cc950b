package fs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document is one parsed record of a vault file.
type Document struct {
	Metadata map[string]any
	Content  string
}

// Parser reads the documents stored in one file format.
type Parser interface {
	Parse(r io.Reader) ([]Document, error)
}

// DefaultParsers returns the parsers for every supported extension.
func DefaultParsers() map[string]Parser {
	return map[string]Parser{
		".json": JSONParser{},
		".yaml": YAMLParser{},
		".yml":  YAMLParser{},
		".csv":  CSVParser{},
		".md":   MarkdownParser{},
	}
}

// --- JSON ---

// JSONParser reads a single object or an array of objects.
type JSONParser struct{}

func (JSONParser) Parse(r io.Reader) ([]Document, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	switch v := payload.(type) {
	case map[string]any:
		return []Document{newDocument(v)}, nil
	case []any:
		docs := make([]Document, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid json: element %d is not an object", i)
			}
			docs = append(docs, newDocument(m))
		}
		return docs, nil
	default:
		return nil, errors.New("invalid json: expected object or array")
	}
}

// --- YAML ---

// YAMLParser reads a single mapping document.
type YAMLParser struct{}

func (YAMLParser) Parse(r io.Reader) ([]Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return []Document{newDocument(payload)}, nil
}

// --- Markdown ---

// MarkdownParser reads YAML frontmatter followed by the body.
type MarkdownParser struct{}

func (MarkdownParser) Parse(r io.Reader) ([]Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return []Document{{Metadata: map[string]any{}, Content: string(data)}}, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) == 1 {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}

	meta := make(map[string]any)
	if err := yaml.Unmarshal(parts[0], &meta); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	content := strings.TrimPrefix(string(parts[1]), "\r")
	content = strings.TrimPrefix(content, "\n")
	content = strings.TrimPrefix(content, "\r\n")

	return []Document{{Metadata: normalize(meta).(map[string]any), Content: content}}, nil
}

// --- CSV ---

// CSVParser reads a collection: every row after the header is a document.
type CSVParser struct{}

func (CSVParser) Parse(r io.Reader) ([]Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var docs []Document
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		doc := Document{Metadata: make(map[string]any)}
		for i, h := range headers {
			if i >= len(row) {
				break
			}
			if strings.EqualFold(h, "content") {
				doc.Content = row[i]
				continue
			}
			doc.Metadata[h] = UnmarshalCSVValue(strings.TrimSpace(row[i]))
		}
		doc.Metadata = normalize(doc.Metadata).(map[string]any)
		docs = append(docs, doc)
	}
	return docs, nil
}

// UnmarshalCSVValue parses a cell as JSON when it looks like an object or a list.
// Otherwise the string is returned as is.
//
// A plain string that happens to be valid JSON (e.g. "[1]") is decoded too.
func UnmarshalCSVValue(val string) any {
	if (strings.HasPrefix(val, "{") && strings.HasSuffix(val, "}")) ||
		(strings.HasPrefix(val, "[") && strings.HasSuffix(val, "]")) {
		var parsed any
		decoder := json.NewDecoder(strings.NewReader(val))
		decoder.UseNumber()
		if err := decoder.Decode(&parsed); err == nil {
			return parsed
		}
	}
	return val
}

// --- Helpers ---

func newDocument(payload map[string]any) Document {
	doc := Document{Metadata: make(map[string]any)}
	for k, v := range payload {
		doc.Metadata[k] = v
	}
	if c, ok := doc.Metadata["content"].(string); ok {
		doc.Content = c
		delete(doc.Metadata, "content")
	}
	doc.Metadata = normalize(doc.Metadata).(map[string]any)
	return doc
}

// normalize converts numbers to json.Number and timestamps to RFC 3339 strings,
// so values read from any format look the same as values read back from the index.
func normalize(val any) any {
	switch v := val.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = normalize(val)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, val := range v {
			l[i] = normalize(val)
		}
		return l
	case int:
		return json.Number(fmt.Sprintf("%d", v))
	case int64:
		return json.Number(fmt.Sprintf("%d", v))
	case int32:
		return json.Number(fmt.Sprintf("%d", v))
	case uint64:
		return json.Number(fmt.Sprintf("%d", v))
	case float64:
		return json.Number(fmt.Sprintf("%v", v))
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}
