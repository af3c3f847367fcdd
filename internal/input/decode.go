package input

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// decodeMapping parses JSON or YAML content whose top level must be a mapping.
// Files named *.json are decoded strictly as JSON. Other files that look like
// a JSON object are tried as JSON first and fall back to YAML.
func decodeMapping(path string, content []byte) (*yaml.Node, error) {
	var (
		root *yaml.Node
		err  error
	)

	switch {
	case strings.EqualFold(filepath.Ext(path), ".json"):
		root, err = decodeJSONDocument(content)
	case looksLikeJSONObject(content):
		if root, err = decodeJSONDocument(content); err != nil {
			root, err = decodeYAMLDocument(content)
		}
	default:
		root, err = decodeYAMLDocument(content)
	}
	if err != nil {
		return nil, parseError(path, "%v", err)
	}

	if root.Kind != yaml.MappingNode {
		return nil, parseError(path, "top level must be an object")
	}
	return root, nil
}

func looksLikeJSONObject(content []byte) bool {
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func decodeYAMLDocument(content []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(content)).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	return doc.Content[0], nil
}

// jsonNodeDecoder streams JSON tokens into a yaml.Node tree so both formats
// share one representation. Object keys keep their file order and repeated
// keys are preserved.
type jsonNodeDecoder struct {
	dec     *json.Decoder
	content []byte
}

func decodeJSONDocument(content []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	d := &jsonNodeDecoder{dec: dec, content: content}

	root, err := d.value()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, errors.New("unexpected data after top-level value")
		}
		return nil, err
	}
	return root, nil
}

// line maps the decoder offset to the 1-based line of the next token
func (d *jsonNodeDecoder) line() int {
	pos := int(d.dec.InputOffset())
	for pos < len(d.content) && strings.IndexByte(" \t\r\n,:", d.content[pos]) >= 0 {
		pos++
	}
	return bytes.Count(d.content[:pos], []byte("\n")) + 1
}

func (d *jsonNodeDecoder) value() (*yaml.Node, error) {
	line := d.line()
	tok, err := d.dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return d.object(line)
		case '[':
			return d.array(line)
		}
		return nil, errors.Errorf("unexpected delimiter %q", t)
	case string:
		return scalarNode("!!str", t, line), nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(t.String(), ".eE") {
			tag = "!!float"
		}
		return scalarNode(tag, t.String(), line), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(t), line), nil
	case nil:
		return scalarNode("!!null", "null", line), nil
	}
	return nil, errors.Errorf("unexpected token %v", tok)
}

func (d *jsonNodeDecoder) object(line int) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: line}
	for d.dec.More() {
		keyLine := d.line()
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("line %d: object key must be a string", keyLine)
		}
		value, err := d.value()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, scalarNode("!!str", key, keyLine), value)
	}
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

func (d *jsonNodeDecoder) array(line int) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Line: line}
	for d.dec.More() {
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, item)
	}
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

func scalarNode(tag, value string, line int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value, Line: line}
}
