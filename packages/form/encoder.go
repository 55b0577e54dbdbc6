package form

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BoundaryPrefix is the fixed part of every generated boundary
const BoundaryPrefix = "----HitclientBoundary"

const defaultContentType = "application/octet-stream"

var (
	// ErrInvalidBlobAux is returned when a blob's Aux is not "mime|filename"
	ErrInvalidBlobAux = errors.New(`blob field metadata must be "mime|filename"`)
	// ErrUnknownKind is returned for a field with an unsupported Kind
	ErrUnknownKind = errors.New("unknown field kind")
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Body is an encoded multipart/form-data payload
type Body struct {
	Boundary    string
	ContentType string
	Data        []byte
}

type encodeOptions struct {
	boundary string
	baseDir  string
}

// EncodeOption configures Encode
type EncodeOption func(*encodeOptions)

// WithBoundary uses a fixed boundary instead of a generated one
func WithBoundary(boundary string) EncodeOption {
	return func(o *encodeOptions) {
		o.boundary = boundary
	}
}

// WithBaseDir resolves relative file paths against dir and rejects paths
// that escape it
func WithBaseDir(dir string) EncodeOption {
	return func(o *encodeOptions) {
		o.baseDir = dir
	}
}

// NewBoundary returns BoundaryPrefix followed by 32 hex characters of a random UUID
func NewBoundary() string {
	id := uuid.New()
	return BoundaryPrefix + strings.ReplaceAll(id.String(), "-", "")
}

// Encode serializes fields into one multipart/form-data body
func Encode(fields []Field, opts ...EncodeOption) (*Body, error) {
	o := &encodeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.boundary == "" {
		o.boundary = NewBoundary()
	}

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	if err := writer.SetBoundary(o.boundary); err != nil {
		return nil, fmt.Errorf("invalid boundary %q: %w", o.boundary, err)
	}

	for _, field := range fields {
		if err := writeField(writer, field, o.baseDir); err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", field.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return &Body{
		Boundary:    o.boundary,
		ContentType: writer.FormDataContentType(),
		Data:        buf.Bytes(),
	}, nil
}

func writeField(writer *multipart.Writer, field Field, baseDir string) error {
	switch field.Kind {
	case KindText:
		part, err := writer.CreatePart(textHeader(field.Name))
		if err != nil {
			return err
		}
		_, err = part.Write([]byte(field.Value))
		return err

	case KindFile:
		data, err := readFile(field.Value, baseDir)
		if err != nil {
			return err
		}
		contentType := field.Aux
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(field.Value))
		}
		part, err := writer.CreatePart(fileHeader(field.Name, BaseName(field.Value), contentType))
		if err != nil {
			return err
		}
		_, err = part.Write(data)
		return err

	case KindBlob:
		// "mime|filename"; segments after the filename are ignored
		aux := strings.Split(field.Aux, "|")
		if len(aux) < 2 {
			return ErrInvalidBlobAux
		}
		part, err := writer.CreatePart(fileHeader(field.Name, aux[1], aux[0]))
		if err != nil {
			return err
		}
		_, err = part.Write(field.Data)
		return err

	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, field.Kind)
	}
}

func textHeader(name string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name)))
	return h
}

// fileHeader always carries a filename, even an empty one
func fileHeader(name, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	if contentType == "" {
		contentType = defaultContentType
	}
	h.Set("Content-Type", contentType)
	return h
}

// BaseName returns the last segment of path, splitting on both '/' and '\'
func BaseName(path string) string {
	return path[strings.LastIndexAny(path, `/\`)+1:]
}

func readFile(path, baseDir string) ([]byte, error) {
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	if err := validatePathWithinBase(path, baseDir); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// validatePathWithinBase checks that the resolved path stays within the base directory
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
