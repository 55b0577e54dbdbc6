package form

import "fmt"

// Kind identifies how a field's content is interpreted
type Kind int

const (
	// KindText sends Value verbatim
	KindText Kind = iota
	// KindFile reads the file at path Value; Aux is the MIME type
	KindFile
	// KindBlob sends Data; Aux is "mime|filename"
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindFile:
		return "file"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is a single named part of a multipart/form-data body.
// Names are not required to be unique.
type Field struct {
	Name  string
	Kind  Kind
	Value string
	Data  []byte
	Aux   string
}

// Text creates a plain text field
func Text(name, value string) Field {
	return Field{Name: name, Kind: KindText, Value: value}
}

// File creates a field whose content is read from path when encoded.
// An empty mimeType is inferred from the file extension.
func File(name, path, mimeType string) Field {
	return Field{Name: name, Kind: KindFile, Value: path, Aux: mimeType}
}

// Blob creates a field from already loaded bytes
func Blob(name string, data []byte, mimeType, filename string) Field {
	return Field{Name: name, Kind: KindBlob, Data: data, Aux: mimeType + "|" + filename}
}
