package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"
)

// MarshalJSON writes the scene as a plain object keyed by part, in
// declaration order.
func (s *Scene) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.parts[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the scene with the document's parts. Document key
// order becomes the declaration order. A part without "scale" gets 1.
func (s *Scene) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

// Decode reads a scene document. No schema validation is done beyond what
// decoding into Part requires.
func Decode(r io.Reader) (*Scene, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("decode scene: expected object, got %v", tok)
	}

	s := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode scene: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode scene: unexpected token %v", tok)
		}
		p := Part{Scale: 1}
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode scene part %q: %w", name, err)
		}
		if p.Scale <= 0 {
			p.Scale = MinScale
		}
		s.Put(Key(name), p)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return s, nil
}

// Encode writes the scene as indented JSON.
func (s *Scene) Encode(w io.Writer) error {
	raw, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

// IsCompressed reports whether path names an lz4 scene document.
func IsCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".lz4")
}

// LoadFile reads a scene document from disk, decompressing .lz4 files.
func LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeNamed(path, data)
}

// DecodeNamed decodes a document read from a file called name; the name
// selects lz4 decompression.
func DecodeNamed(name string, data []byte) (*Scene, error) {
	if IsCompressed(name) {
		var err error
		if data, err = decompressLZ4(data); err != nil {
			return nil, fmt.Errorf("decompress %s: %w", name, err)
		}
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// SaveFile writes the scene to disk, compressing when path ends in .lz4.
func (s *Scene) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}
	data := buf.Bytes()
	if IsCompressed(path) {
		var err error
		if data, err = compressLZ4(data); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLZ4(data []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
