package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// documentBackend decodes one text format. Decode returns the document both as a
// generic JSON value for schema validation and as a typed Document.
type documentBackend interface {
	// Decode parses raw.
	//
	// Parameters:
	//   - raw: the encoded document
	//
	// Returns:
	//   - any: the document as a JSON value
	//   - *Document: the typed document
	//   - error: a syntax error
	Decode(raw []byte) (any, *Document, error)
}

type yamlBackend struct{}

var _ documentBackend = yamlBackend{}

func (yamlBackend) Decode(raw []byte) (any, *Document, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, nil, err
	}
	// Round trip through JSON so the validator sees JSON numbers and string keys.
	js, err := json.Marshal(generic)
	if err != nil {
		return nil, nil, err
	}
	value, err := decodeJSONValue(js)
	if err != nil {
		return nil, nil, err
	}

	doc := &Document{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return value, doc, nil
}

type jsonBackend struct{}

var _ documentBackend = jsonBackend{}

func (jsonBackend) Decode(raw []byte) (any, *Document, error) {
	value, err := decodeJSONValue(raw)
	if err != nil {
		return nil, nil, err
	}
	doc := &Document{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	return value, doc, nil
}

// decodeJSONValue decodes raw into the generic form the schema validator expects, with
// numbers kept as json.Number.
func decodeJSONValue(raw []byte) (any, error) {
	var value any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}
