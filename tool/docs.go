package tool

import (
	"context"

	"github.com/corelabsai/driveagent/drive"
)

type (
	CreateDocRequest struct {
		Title    string `json:"title" jsonschema:"description=Title of the new Google Doc"`
		FolderID string `json:"folder_id,omitempty" jsonschema:"description=Folder ID to place the document in (empty for root)"`
	}

	WriteDocRequest struct {
		DocumentID string `json:"document_id" jsonschema:"description=ID of the Google Doc to write to"`
		Content    string `json:"content" jsonschema:"description=Markdown-formatted content to write. Use # for H1 and ## for H2 and ### for H3 headings"`
	}

	AppendDocRequest struct {
		DocumentID string `json:"document_id" jsonschema:"description=ID of the Google Doc to append to"`
		Content    string `json:"content" jsonschema:"description=Markdown content to append at the end"`
	}

	ReadDocRequest struct {
		DocumentID string `json:"document_id" jsonschema:"description=ID of the Google Doc to read"`
	}
)

func (m *Manager) registerDocsTools(driveSvc drive.Service) {
	registerTool(m, "create_document",
		"Create a new, empty Google Doc. Optionally place it in a folder by providing folder_id.",
		func(ctx context.Context, req *CreateDocRequest) (any, error) {
			doc, err := driveSvc.CreateDocument(ctx, req.Title, "", req.FolderID)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success":     true,
				"document_id": doc.ID,
				"title":       doc.Title,
				"link":        doc.Link,
			}, nil
		})

	registerTool(m, "write_to_document",
		"Write Markdown content to a Google Doc (overwrites existing body). Use # / ## / ### for headings.",
		func(ctx context.Context, req *WriteDocRequest) (any, error) {
			if err := driveSvc.WriteDocument(ctx, req.DocumentID, req.Content); err != nil {
				return nil, err
			}
			return map[string]any{
				"success":            true,
				"document_id":        req.DocumentID,
				"characters_written": len(req.Content),
			}, nil
		})

	registerTool(m, "append_to_document",
		"Append Markdown content to the end of a Google Doc.",
		func(ctx context.Context, req *AppendDocRequest) (any, error) {
			if err := driveSvc.AppendDocument(ctx, req.DocumentID, req.Content); err != nil {
				return nil, err
			}
			return map[string]any{
				"success":             true,
				"document_id":         req.DocumentID,
				"characters_appended": len(req.Content),
			}, nil
		})

	registerTool(m, "read_document",
		"Read the full text content of a Google Doc.",
		func(ctx context.Context, req *ReadDocRequest) (any, error) {
			content, err := driveSvc.ReadDocument(ctx, req.DocumentID)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success":     true,
				"document_id": req.DocumentID,
				"content":     content,
			}, nil
		})
}
