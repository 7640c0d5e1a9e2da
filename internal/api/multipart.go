package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
)

// Payload is a create/update/action request body keyed by backend field name.
type Payload map[string]any

// File marks a payload value as a local file to upload. A payload holding a
// File with a non-empty Path is sent as multipart/form-data.
type File struct {
	Path string
}

// encodedBody is a request body serialized once so it can be replayed after
// a token refresh.
type encodedBody struct {
	data        []byte
	contentType string
}

func (b *encodedBody) reader() io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b.data)
}

func encodeBody(body any) (*encodedBody, error) {
	if body == nil {
		return nil, nil
	}
	if p, ok := body.(Payload); ok {
		if p.hasFile() {
			return encodeMultipart(p)
		}
		body = p.withoutFiles()
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return &encodedBody{data: data, contentType: "application/json"}, nil
}

func (p Payload) hasFile() bool {
	for _, v := range p {
		if f, ok := v.(File); ok && f.Path != "" {
			return true
		}
	}
	return false
}

// withoutFiles drops empty file fields so that an unchanged upload field
// does not overwrite the stored file.
func (p Payload) withoutFiles() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		if _, ok := v.(File); ok {
			continue
		}
		out[k] = v
	}
	return out
}

func encodeMultipart(p Payload) (*encodedBody, error) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range keys {
		switch v := p[k].(type) {
		case File:
			if v.Path == "" {
				continue
			}
			if err := writeFilePart(w, k, v.Path); err != nil {
				return nil, err
			}
		case nil:
			if err := w.WriteField(k, ""); err != nil {
				return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
			}
		default:
			if err := w.WriteField(k, fmt.Sprint(v)); err != nil {
				return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &encodedBody{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

func writeFilePart(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to encode file %s: %w", field, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}
