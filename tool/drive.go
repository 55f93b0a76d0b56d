package tool

import (
	"context"

	"github.com/corelabsai/driveagent/drive"
)

type (
	ListFilesRequest struct {
		FolderID   string `json:"folder_id,omitempty" jsonschema:"description=Drive folder ID to list (use 'root' for top-level)"`
		MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum files to return"`
	}

	SearchDriveRequest struct {
		Query      string `json:"query" jsonschema:"description=Filename or keyword to search for in Drive"`
		MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum results to return"`
	}

	CreateFolderRequest struct {
		Name     string `json:"name" jsonschema:"description=Name of the folder to create"`
		ParentID string `json:"parent_id,omitempty" jsonschema:"description=Parent folder ID ('root' for top-level)"`
	}

	ReadFileRequest struct {
		FileID string `json:"file_id" jsonschema:"description=Drive file ID to read (plain-text export)"`
	}
)

func (m *Manager) registerDriveTools(driveSvc drive.Service) {
	registerTool(m, "list_drive_files",
		"List files in a Google Drive folder. Returns names, IDs, MIME types, and links.",
		func(ctx context.Context, req *ListFilesRequest) (any, error) {
			if req.FolderID == "" {
				req.FolderID = "root"
			}
			if req.MaxResults <= 0 {
				req.MaxResults = 25
			}
			files, err := driveSvc.ListFiles(ctx, req.FolderID, int64(req.MaxResults))
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"files":   files,
				"count":   len(files),
			}, nil
		})

	registerTool(m, "search_drive",
		"Search Google Drive for files or folders by name. Use this to check whether a resource already exists.",
		func(ctx context.Context, req *SearchDriveRequest) (any, error) {
			if req.MaxResults <= 0 {
				req.MaxResults = 15
			}
			files, err := driveSvc.SearchFiles(ctx, req.Query, int64(req.MaxResults))
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"files":   files,
				"count":   len(files),
			}, nil
		})

	registerTool(m, "create_folder",
		"Create a folder in Google Drive (returns existing one if a folder with the same name already exists). Returns folder ID and link.",
		func(ctx context.Context, req *CreateFolderRequest) (any, error) {
			if req.ParentID == "" {
				req.ParentID = "root"
			}
			folder, created, err := driveSvc.CreateFolder(ctx, req.Name, req.ParentID)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"folder":  folder,
				"created": created,
			}, nil
		})

	registerTool(m, "read_file_content",
		"Export and read any Drive file as plain text.",
		func(ctx context.Context, req *ReadFileRequest) (any, error) {
			content, err := driveSvc.ReadFileContent(ctx, req.FileID)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"content": content,
			}, nil
		})
}
