package drive

import (
	"context"
)

type (
	// File is the slim metadata view returned by listing and search calls.
	File struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		MimeType     string `json:"mimeType"`
		ModifiedTime string `json:"modifiedTime,omitempty"`
		Size         int64  `json:"size,omitempty"`
		WebViewLink  string `json:"webViewLink,omitempty"`
	}

	// Document pairs a created document with its shareable link.
	Document struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Link  string `json:"link"`
	}

	// Service abstracts the remote storage backend. The production
	// implementation talks to Google Drive and Docs; tests use the
	// in-memory one.
	Service interface {
		// EnsureFolder returns the ID of the named folder under parentID,
		// creating it when absent. An empty parentID means the root.
		EnsureFolder(ctx context.Context, name, parentID string) (string, error)

		// FindFile returns the ID of the named file under parentID, or ""
		// when no such file exists.
		FindFile(ctx context.Context, name, parentID string) (string, error)

		// ReadJSON downloads the file and decodes it into out. Decode
		// failures wrap errors.ErrDecode.
		ReadJSON(ctx context.Context, fileID string, out any) error

		// WriteJSON marshals v and uploads it, creating the file under
		// parentID when fileID is empty. It returns the file ID.
		WriteJSON(ctx context.Context, name, parentID, fileID string, v any) (string, error)

		ListFiles(ctx context.Context, folderID string, pageSize int64) ([]File, error)
		SearchFiles(ctx context.Context, query string, pageSize int64) ([]File, error)

		// CreateFolder returns the folder and whether it was newly created.
		// An existing folder with the same name is reused.
		CreateFolder(ctx context.Context, name, parentID string) (File, bool, error)

		ReadFileContent(ctx context.Context, fileID string) (string, error)
		GetFileMetadata(ctx context.Context, fileID string) (File, error)
		MoveFile(ctx context.Context, fileID, folderID string) (File, error)
		DeleteFile(ctx context.Context, fileID string) error

		CreateDocument(ctx context.Context, title, content, folderID string) (Document, error)

		// WriteDocument replaces the document body with the given
		// markdown content.
		WriteDocument(ctx context.Context, docID, content string) error

		AppendDocument(ctx context.Context, docID, content string) error
		ReadDocument(ctx context.Context, docID string) (string, error)
	}
)

const (
	MimeTypeFolder   = "application/vnd.google-apps.folder"
	MimeTypeDocument = "application/vnd.google-apps.document"
)
