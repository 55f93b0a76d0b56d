package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
	docs "google.golang.org/api/docs/v1"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/corelabsai/driveagent/errors"
)

type googleService struct {
	drive *gdrive.Service
	docs  *docs.Service
}

var _ Service = (*googleService)(nil)

// NewGoogleService builds a Service over the Drive v3 and Docs v1 APIs
// using the given per-user token source.
func NewGoogleService(ctx context.Context, ts oauth2.TokenSource) (Service, error) {
	driveSrv, err := gdrive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build drive client")
	}
	docsSrv, err := docs.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build docs client")
	}

	return &googleService{
		drive: driveSrv,
		docs:  docsSrv,
	}, nil
}

// escapeQuery escapes a literal value for a Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func (s *googleService) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	folder, _, err := s.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	return folder.ID, nil
}

func (s *googleService) FindFile(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}

	res, err := s.drive.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.Wrapf(err, "failed to find file %q", name)
	}
	if len(res.Files) == 0 {
		return "", nil
	}

	return res.Files[0].Id, nil
}

func (s *googleService) ReadJSON(ctx context.Context, fileID string, out any) error {
	resp, err := s.drive.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return errors.Wrapf(err, "failed to download file %q", fileID)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read file %q", fileID)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(errors.ErrDecode, "file %q: %v", fileID, err)
	}

	return nil
}

func (s *googleService) WriteJSON(ctx context.Context, name, parentID, fileID string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrapf(err, "failed to marshal %q", name)
	}
	media := googleapi.ContentType("application/json")

	if fileID == "" {
		meta := &gdrive.File{
			Name:     name,
			MimeType: "application/json",
		}
		if parentID != "" {
			meta.Parents = []string{parentID}
		}
		created, err := s.drive.Files.Create(meta).
			Media(bytes.NewReader(data), media).
			Context(ctx).
			Do()
		if err != nil {
			return "", errors.Wrapf(err, "failed to create file %q", name)
		}
		return created.Id, nil
	}

	if _, err := s.drive.Files.Update(fileID, nil).
		Media(bytes.NewReader(data), media).
		Context(ctx).
		Do(); err != nil {
		return "", errors.Wrapf(err, "failed to update file %q", fileID)
	}

	return fileID, nil
}

const fileFields = "files(id, name, mimeType, modifiedTime, size, webViewLink)"

func (s *googleService) ListFiles(ctx context.Context, folderID string, pageSize int64) ([]File, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	q := "trashed = false"
	if folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(folderID))
	}

	res, err := s.drive.Files.List().
		Q(q).
		Fields(fileFields).
		OrderBy("modifiedTime desc").
		PageSize(pageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list files")
	}

	return toFiles(res.Files), nil
}

func (s *googleService) SearchFiles(ctx context.Context, query string, pageSize int64) ([]File, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	q := fmt.Sprintf("name contains '%s' and trashed = false", escapeQuery(query))

	res, err := s.drive.Files.List().
		Q(q).
		Fields(fileFields).
		OrderBy("modifiedTime desc").
		PageSize(pageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search files for %q", query)
	}

	return toFiles(res.Files), nil
}

func (s *googleService) CreateFolder(ctx context.Context, name, parentID string) (File, bool, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), MimeTypeFolder)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	res, err := s.drive.Files.List().
		Q(q).
		Fields("files(id, name, mimeType, webViewLink)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return File{}, false, errors.Wrapf(err, "failed to look up folder %q", name)
	}
	if len(res.Files) > 0 {
		return toFile(res.Files[0]), false, nil
	}

	meta := &gdrive.File{
		Name:     name,
		MimeType: MimeTypeFolder,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	created, err := s.drive.Files.Create(meta).
		Fields("id, name, mimeType, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return File{}, false, errors.Wrapf(err, "failed to create folder %q", name)
	}

	return toFile(created), true, nil
}

func (s *googleService) ReadFileContent(ctx context.Context, fileID string) (string, error) {
	meta, err := s.drive.Files.Get(fileID).Fields("id, mimeType").Context(ctx).Do()
	if err != nil {
		return "", errors.Wrapf(err, "failed to stat file %q", fileID)
	}

	var body io.ReadCloser
	if strings.HasPrefix(meta.MimeType, "application/vnd.google-apps.") {
		// Workspace-native files cannot be downloaded raw.
		r, err := s.drive.Files.Export(fileID, "text/plain").Context(ctx).Download()
		if err != nil {
			return "", errors.Wrapf(err, "failed to export file %q", fileID)
		}
		body = r.Body
	} else {
		r, err := s.drive.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return "", errors.Wrapf(err, "failed to download file %q", fileID)
		}
		body = r.Body
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file %q", fileID)
	}

	return string(data), nil
}

func (s *googleService) GetFileMetadata(ctx context.Context, fileID string) (File, error) {
	f, err := s.drive.Files.Get(fileID).
		Fields("id, name, mimeType, modifiedTime, size, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return File{}, errors.Wrapf(err, "failed to stat file %q", fileID)
	}

	return toFile(f), nil
}

func (s *googleService) MoveFile(ctx context.Context, fileID, folderID string) (File, error) {
	cur, err := s.drive.Files.Get(fileID).Fields("parents").Context(ctx).Do()
	if err != nil {
		return File{}, errors.Wrapf(err, "failed to stat file %q", fileID)
	}

	f, err := s.drive.Files.Update(fileID, nil).
		AddParents(folderID).
		RemoveParents(strings.Join(cur.Parents, ",")).
		Fields("id, name, mimeType, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return File{}, errors.Wrapf(err, "failed to move file %q", fileID)
	}

	return toFile(f), nil
}

func (s *googleService) DeleteFile(ctx context.Context, fileID string) error {
	// Trash rather than hard-delete so the user can still recover.
	if _, err := s.drive.Files.Update(fileID, &gdrive.File{Trashed: true}).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "failed to trash file %q", fileID)
	}
	return nil
}

func (s *googleService) CreateDocument(ctx context.Context, title, content, folderID string) (Document, error) {
	doc, err := s.docs.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return Document{}, errors.Wrapf(err, "failed to create document %q", title)
	}

	if content != "" {
		reqs := buildDocRequests(content)
		if _, err := s.docs.Documents.BatchUpdate(doc.DocumentId, &docs.BatchUpdateDocumentRequest{
			Requests: reqs,
		}).Context(ctx).Do(); err != nil {
			return Document{}, errors.Wrapf(err, "failed to write document %q", title)
		}
	}

	if folderID != "" {
		if _, err := s.drive.Files.Update(doc.DocumentId, nil).
			AddParents(folderID).
			RemoveParents("root").
			Context(ctx).
			Do(); err != nil {
			return Document{}, errors.Wrapf(err, "failed to move document %q", title)
		}
	}

	return Document{
		ID:    doc.DocumentId,
		Title: title,
		Link:  fmt.Sprintf("https://docs.google.com/document/d/%s/edit", doc.DocumentId),
	}, nil
}

func (s *googleService) WriteDocument(ctx context.Context, docID, content string) error {
	doc, err := s.docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "failed to get document %q", docID)
	}

	endIndex := int64(1)
	if n := len(doc.Body.Content); n > 0 {
		endIndex = doc.Body.Content[n-1].EndIndex
	}

	var reqs []*docs.Request
	if endIndex > 2 {
		// Clear the existing body. The final newline cannot be deleted.
		reqs = append(reqs, &docs.Request{
			DeleteContentRange: &docs.DeleteContentRangeRequest{
				Range: &docs.Range{StartIndex: 1, EndIndex: endIndex - 1},
			},
		})
	}
	reqs = append(reqs, buildDocRequests(content)...)

	if _, err := s.docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
		Requests: reqs,
	}).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "failed to write document %q", docID)
	}

	return nil
}

func (s *googleService) AppendDocument(ctx context.Context, docID, content string) error {
	doc, err := s.docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "failed to get document %q", docID)
	}

	endIndex := int64(1)
	if n := len(doc.Body.Content); n > 0 {
		endIndex = doc.Body.Content[n-1].EndIndex - 1
	}

	if _, err := s.docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{
			{
				InsertText: &docs.InsertTextRequest{
					Location: &docs.Location{Index: endIndex},
					Text:     "\n" + content,
				},
			},
		},
	}).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "failed to append to document %q", docID)
	}

	return nil
}

func (s *googleService) ReadDocument(ctx context.Context, docID string) (string, error) {
	doc, err := s.docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrapf(err, "failed to get document %q", docID)
	}

	var sb strings.Builder
	for _, elem := range doc.Body.Content {
		if elem.Paragraph == nil {
			continue
		}
		for _, pe := range elem.Paragraph.Elements {
			if pe.TextRun != nil {
				sb.WriteString(pe.TextRun.Content)
			}
		}
	}

	return sb.String(), nil
}

func toFile(f *gdrive.File) File {
	return File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Size:         f.Size,
		WebViewLink:  f.WebViewLink,
	}
}

func toFiles(files []*gdrive.File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		out = append(out, toFile(f))
	}
	return out
}
