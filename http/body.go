package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

// ContentTypeJSON is set on structurally encoded bodies.
const ContentTypeJSON = "application/json"

// Blob is binary data with an optional media type.
type Blob struct {
	Type string
	Data []byte
}

// Size returns the number of bytes in the blob.
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// FormFile is a file part of a FormData.
type FormFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type formEntry struct {
	name  string
	value string
	file  *FormFile
}

// FormData is an ordered multipart form. It is sent as multipart/form-data.
type FormData struct {
	entries []formEntry
}

// NewFormData returns an empty form.
func NewFormData() *FormData {
	return &FormData{}
}

// Append adds a field value.
func (f *FormData) Append(name, value string) {
	f.entries = append(f.entries, formEntry{name: name, value: value})
}

// Set replaces every value of name with value.
func (f *FormData) Set(name, value string) {
	f.Delete(name)
	f.Append(name, value)
}

// Delete removes every entry named name.
func (f *FormData) Delete(name string) {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.name != name {
			kept = append(kept, e)
		}
	}
	f.entries = kept
}

// AppendFile adds a file part.
func (f *FormData) AppendFile(name string, file FormFile) {
	ff := file
	f.entries = append(f.entries, formEntry{name: name, file: &ff})
}

// Get returns the first field value for name.
func (f *FormData) Get(name string) string {
	for _, e := range f.entries {
		if e.name == name && e.file == nil {
			return e.value
		}
	}
	return ""
}

// GetAll returns every field value for name in order.
func (f *FormData) GetAll(name string) []string {
	var out []string
	for _, e := range f.entries {
		if e.name == name && e.file == nil {
			out = append(out, e.value)
		}
	}
	return out
}

// File returns the first file part named name.
func (f *FormData) File(name string) (*FormFile, bool) {
	for _, e := range f.entries {
		if e.name == name && e.file != nil {
			return e.file, true
		}
	}
	return nil, false
}

// Len returns the number of entries.
func (f *FormData) Len() int {
	return len(f.entries)
}

// Values returns the non-file fields.
func (f *FormData) Values() url.Values {
	v := make(url.Values)
	for _, e := range f.entries {
		if e.file == nil {
			v.Add(e.name, e.value)
		}
	}
	return v
}

// Encode writes the form as multipart/form-data and returns the body with
// its content type (including the boundary).
func (f *FormData) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, e := range f.entries {
		if e.file == nil {
			if err := w.WriteField(e.name, e.value); err != nil {
				return nil, "", err
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, e.name, e.file.Filename))
		ct := e.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(e.file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ParseFormData reads a multipart/form-data or
// application/x-www-form-urlencoded body.
func ParseFormData(contentType string, body []byte) (*FormData, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type: %w", err)
	}
	form := NewFormData()
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		for k, vv := range values {
			for _, v := range vv {
				form.Append(k, v)
			}
		}
		return form, nil
	case strings.HasPrefix(mediaType, "multipart/"):
		r := multipart.NewReader(bytes.NewReader(body), params["boundary"])
		for {
			part, err := r.NextPart()
			if errors.Is(err, io.EOF) {
				return form, nil
			}
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(part)
			if err != nil {
				return nil, err
			}
			if part.FileName() != "" {
				form.AppendFile(part.FormName(), FormFile{
					Filename:    part.FileName(),
					ContentType: part.Header.Get("Content-Type"),
					Data:        data,
				})
			} else {
				form.Append(part.FormName(), string(data))
			}
		}
	}
	return nil, fmt.Errorf("unsupported form content type %q", mediaType)
}

// EncodedBody is the outcome of EncodeBody.
type EncodedBody struct {
	Body any
	// ContentType is set only when the body was structurally encoded.
	ContentType string
}

// JSON reports whether the body was structurally encoded.
func (e EncodedBody) JSON() bool {
	return e.ContentType == ContentTypeJSON
}

// EncodeBody passes raw bodies through and JSON-encodes everything else.
// Falsy bodies (nil, "", false, 0, NaN) mean no body.
func EncodeBody(body any) (EncodedBody, error) {
	if !truthy(body) {
		return EncodedBody{}, nil
	}
	switch body.(type) {
	case *Blob, Blob, []byte, *FormData, string, io.Reader:
		return EncodedBody{Body: body}, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return EncodedBody{}, &Error{
			Type:    ErrorTypeEncoding,
			Message: "encode request body as JSON",
			Cause:   err,
		}
	}
	return EncodedBody{Body: string(data), ContentType: ContentTypeJSON}, nil
}
