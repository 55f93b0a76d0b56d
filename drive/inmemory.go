package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/corelabsai/driveagent/errors"
)

type (
	inMemoryFile struct {
		id       string
		name     string
		mimeType string
		parentID string
		content  []byte
		modified time.Time
	}

	// InMemoryService is a Service backed by process memory. It mirrors
	// the remote backend closely enough for the memory engine and the
	// agent tools to run against it in tests and local development.
	InMemoryService struct {
		mtx   sync.Mutex
		files map[string]*inMemoryFile
		seq   int

		// Now supplies timestamps and can be overridden in tests.
		Now func() time.Time
	}
)

var _ Service = (*InMemoryService)(nil)

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		files: map[string]*inMemoryFile{},
		Now:   time.Now,
	}
}

func (s *InMemoryService) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// normalizeParent maps the Drive "root" alias onto the empty parent used
// internally.
func normalizeParent(parentID string) string {
	if parentID == "root" {
		return ""
	}
	return parentID
}

func (s *InMemoryService) findLocked(name, parentID, mimeType string) *inMemoryFile {
	parentID = normalizeParent(parentID)
	for _, f := range s.files {
		if f.name != name || f.parentID != parentID {
			continue
		}
		if mimeType != "" && f.mimeType != mimeType {
			continue
		}
		return f
	}
	return nil
}

func (s *InMemoryService) EnsureFolder(_ context.Context, name, parentID string) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if f := s.findLocked(name, parentID, MimeTypeFolder); f != nil {
		return f.id, nil
	}

	f := &inMemoryFile{
		id:       s.nextID("folder"),
		name:     name,
		mimeType: MimeTypeFolder,
		parentID: normalizeParent(parentID),
		modified: s.Now(),
	}
	s.files[f.id] = f

	return f.id, nil
}

func (s *InMemoryService) FindFile(_ context.Context, name, parentID string) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if f := s.findLocked(name, parentID, ""); f != nil {
		return f.id, nil
	}
	return "", nil
}

func (s *InMemoryService) ReadJSON(_ context.Context, fileID string, out any) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "file %q", fileID)
	}
	if err := json.Unmarshal(f.content, out); err != nil {
		return errors.Wrapf(errors.ErrDecode, "file %q: %v", fileID, err)
	}

	return nil
}

func (s *InMemoryService) WriteJSON(_ context.Context, name, parentID, fileID string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrapf(err, "failed to marshal %q", name)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if fileID != "" {
		f, ok := s.files[fileID]
		if !ok {
			return "", errors.Wrapf(errors.ErrNotFound, "file %q", fileID)
		}
		f.content = data
		f.modified = s.Now()
		return f.id, nil
	}

	f := &inMemoryFile{
		id:       s.nextID("file"),
		name:     name,
		mimeType: "application/json",
		parentID: normalizeParent(parentID),
		content:  data,
		modified: s.Now(),
	}
	s.files[f.id] = f

	return f.id, nil
}

// WriteRaw stores raw bytes under the given name, creating or replacing
// the file. Tests use it to stage malformed payloads.
func (s *InMemoryService) WriteRaw(name, parentID string, data []byte) string {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if f := s.findLocked(name, parentID, ""); f != nil {
		f.content = data
		f.modified = s.Now()
		return f.id
	}

	f := &inMemoryFile{
		id:       s.nextID("file"),
		name:     name,
		mimeType: "application/json",
		parentID: normalizeParent(parentID),
		content:  data,
		modified: s.Now(),
	}
	s.files[f.id] = f

	return f.id
}

func (s *InMemoryService) ListFiles(_ context.Context, folderID string, pageSize int64) ([]File, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	folderID = normalizeParent(folderID)
	var out []File
	for _, f := range s.files {
		if folderID != "" && f.parentID != folderID {
			continue
		}
		out = append(out, s.toFileLocked(f))
		if pageSize > 0 && int64(len(out)) >= pageSize {
			break
		}
	}

	return out, nil
}

func (s *InMemoryService) SearchFiles(_ context.Context, query string, pageSize int64) ([]File, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	needle := strings.ToLower(query)
	var out []File
	for _, f := range s.files {
		if !strings.Contains(strings.ToLower(f.name), needle) {
			continue
		}
		out = append(out, s.toFileLocked(f))
		if pageSize > 0 && int64(len(out)) >= pageSize {
			break
		}
	}

	return out, nil
}

func (s *InMemoryService) CreateFolder(_ context.Context, name, parentID string) (File, bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if f := s.findLocked(name, parentID, MimeTypeFolder); f != nil {
		return s.toFileLocked(f), false, nil
	}

	f := &inMemoryFile{
		id:       s.nextID("folder"),
		name:     name,
		mimeType: MimeTypeFolder,
		parentID: normalizeParent(parentID),
		modified: s.Now(),
	}
	s.files[f.id] = f

	return s.toFileLocked(f), true, nil
}

func (s *InMemoryService) ReadFileContent(_ context.Context, fileID string) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "file %q", fileID)
	}

	return string(f.content), nil
}

func (s *InMemoryService) GetFileMetadata(_ context.Context, fileID string) (File, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return File{}, errors.Wrapf(errors.ErrNotFound, "file %q", fileID)
	}

	return s.toFileLocked(f), nil
}

func (s *InMemoryService) MoveFile(_ context.Context, fileID, folderID string) (File, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return File{}, errors.Wrapf(errors.ErrNotFound, "file %q", fileID)
	}
	f.parentID = normalizeParent(folderID)
	f.modified = s.Now()

	return s.toFileLocked(f), nil
}

func (s *InMemoryService) DeleteFile(_ context.Context, fileID string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.files[fileID]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "file %q", fileID)
	}
	delete(s.files, fileID)

	return nil
}

func (s *InMemoryService) CreateDocument(_ context.Context, title, content, folderID string) (Document, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f := &inMemoryFile{
		id:       s.nextID("doc"),
		name:     title,
		mimeType: MimeTypeDocument,
		parentID: normalizeParent(folderID),
		content:  []byte(content),
		modified: s.Now(),
	}
	s.files[f.id] = f

	return Document{
		ID:    f.id,
		Title: title,
		Link:  fmt.Sprintf("https://docs.google.com/document/d/%s/edit", f.id),
	}, nil
}

func (s *InMemoryService) WriteDocument(_ context.Context, docID, content string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f, ok := s.files[docID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "document %q", docID)
	}
	f.content = []byte(content)
	f.modified = s.Now()

	return nil
}

func (s *InMemoryService) AppendDocument(_ context.Context, docID, content string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f, ok := s.files[docID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "document %q", docID)
	}
	f.content = append(f.content, []byte("\n"+content)...)
	f.modified = s.Now()

	return nil
}

func (s *InMemoryService) ReadDocument(_ context.Context, docID string) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f, ok := s.files[docID]
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "document %q", docID)
	}

	return string(f.content), nil
}

func (s *InMemoryService) toFileLocked(f *inMemoryFile) File {
	return File{
		ID:           f.id,
		Name:         f.name,
		MimeType:     f.mimeType,
		ModifiedTime: f.modified.UTC().Format(time.RFC3339),
		Size:         int64(len(f.content)),
	}
}
