package drive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corelabsai/driveagent/errors"
)

func TestInMemoryServiceFolders(t *testing.T) {
	svc := NewInMemoryService()
	ctx := t.Context()

	id, err := svc.EnsureFolder(ctx, "AI_AGENT_MEMORY", "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := svc.EnsureFolder(ctx, "AI_AGENT_MEMORY", "")
	require.NoError(t, err)
	require.Equal(t, id, again)

	folder, created, err := svc.CreateFolder(ctx, "Projects", "")
	require.NoError(t, err)
	require.True(t, created)

	_, created, err = svc.CreateFolder(ctx, "Projects", "")
	require.NoError(t, err)
	require.False(t, created)

	require.Equal(t, MimeTypeFolder, folder.MimeType)
}

func TestInMemoryServiceJSONRoundTrip(t *testing.T) {
	svc := NewInMemoryService()
	ctx := t.Context()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	id, err := svc.WriteJSON(ctx, "profile.json", "", "", payload{Name: "alice", Count: 3})
	require.NoError(t, err)

	var got payload
	require.NoError(t, svc.ReadJSON(ctx, id, &got))
	require.Equal(t, "alice", got.Name)
	require.Equal(t, 3, got.Count)

	// Updating by ID keeps the same file.
	id2, err := svc.WriteJSON(ctx, "profile.json", "", id, payload{Name: "alice", Count: 4})
	require.NoError(t, err)
	require.Equal(t, id, id2)

	found, err := svc.FindFile(ctx, "profile.json", "")
	require.NoError(t, err)
	require.Equal(t, id, found)
}

func TestInMemoryServiceCorruptJSON(t *testing.T) {
	svc := NewInMemoryService()

	id := svc.WriteRaw("broken.json", "", []byte("{not json"))

	var out map[string]any
	err := svc.ReadJSON(t.Context(), id, &out)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrDecode))
}

func TestInMemoryServiceSearchAndDelete(t *testing.T) {
	svc := NewInMemoryService()
	ctx := t.Context()

	_, err := svc.WriteJSON(ctx, "meeting notes.json", "", "", map[string]string{})
	require.NoError(t, err)
	docID, err := svc.CreateDocument(ctx, "Meeting Agenda", "# Agenda", "")
	require.NoError(t, err)

	files, err := svc.SearchFiles(ctx, "meeting", 10)
	require.NoError(t, err)
	require.Len(t, files, 2)

	require.NoError(t, svc.DeleteFile(ctx, docID.ID))
	require.True(t, errors.Is(svc.DeleteFile(ctx, docID.ID), errors.ErrNotFound))

	files, err = svc.SearchFiles(ctx, "meeting", 10)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestInMemoryServiceMoveAndMetadata(t *testing.T) {
	svc := NewInMemoryService()
	ctx := t.Context()

	folderID, err := svc.EnsureFolder(ctx, "Archive", "")
	require.NoError(t, err)
	doc, err := svc.CreateDocument(ctx, "Old Notes", "text", "root")
	require.NoError(t, err)

	moved, err := svc.MoveFile(ctx, doc.ID, folderID)
	require.NoError(t, err)
	require.Equal(t, doc.ID, moved.ID)

	files, err := svc.ListFiles(ctx, folderID, 10)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "Old Notes", files[0].Name)

	meta, err := svc.GetFileMetadata(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, MimeTypeDocument, meta.MimeType)
	require.EqualValues(t, len("text"), meta.Size)

	_, err = svc.GetFileMetadata(ctx, "nope")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestInMemoryServiceDocuments(t *testing.T) {
	svc := NewInMemoryService()
	ctx := t.Context()

	doc, err := svc.CreateDocument(ctx, "Notes", "first", "")
	require.NoError(t, err)
	require.Contains(t, doc.Link, doc.ID)

	require.NoError(t, svc.AppendDocument(ctx, doc.ID, "second"))

	text, err := svc.ReadDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond", text)
}
