package uploads

import (
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"
)

// FileMetadata describes one ingested file. Storage of the bytes themselves
// is handled outside this service.
type FileMetadata struct {
	StoredName   string `json:"filename" bson:"filename"`
	OriginalName string `json:"originalName" bson:"original_name"`
	SizeBytes    int64  `json:"size" bson:"size"`
}

// URL returns the public path the stored file is served from
func (m FileMetadata) URL() string {
	return "/uploads/" + m.StoredName
}

// Ingestor turns submitted multipart files into file metadata
type Ingestor interface {
	// IngestAll processes a named multi-file form field
	IngestAll(form *multipart.Form, field string) []FileMetadata
	// IngestOne processes a named single-file form field, nil when absent
	IngestOne(form *multipart.Form, field string) *FileMetadata
}

// NameIngestor assigns collision-free stored names and reports metadata
// without touching the file contents.
type NameIngestor struct{}

// NewNameIngestor creates a metadata-only ingestor
func NewNameIngestor() *NameIngestor {
	return &NameIngestor{}
}

func (i *NameIngestor) IngestAll(form *multipart.Form, field string) []FileMetadata {
	if form == nil {
		return nil
	}
	files := form.File[field]
	metadata := make([]FileMetadata, 0, len(files))
	for _, file := range files {
		metadata = append(metadata, describe(file))
	}
	return metadata
}

func (i *NameIngestor) IngestOne(form *multipart.Form, field string) *FileMetadata {
	if form == nil || len(form.File[field]) == 0 {
		return nil
	}
	meta := describe(form.File[field][0])
	return &meta
}

func describe(file *multipart.FileHeader) FileMetadata {
	return FileMetadata{
		StoredName:   uuid.NewString() + filepath.Ext(file.Filename),
		OriginalName: file.Filename,
		SizeBytes:    file.Size,
	}
}
