package service

import (
	"context"
	"errors"
	"testing"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFolders(t *testing.T) (*memory.TreeRepository, IFolderService) {
	t.Helper()
	repo := memory.NewTreeRepository()
	svc := NewFolderService(repo, logger.NewNopLogger())
	require.NoError(t, svc.Load(context.Background()))
	return repo, svc
}

func TestFolders_CreateAttachMove(t *testing.T) {
	_, svc := newFolders(t)
	ctx := context.Background()

	x, err := svc.CreateFolder(ctx, "X", "")
	require.NoError(t, err)
	y, err := svc.CreateFolder(ctx, "Y", x.Id)
	require.NoError(t, err)

	require.NoError(t, svc.Attach(ctx, "doc1", x.Id))
	require.NoError(t, svc.Attach(ctx, "doc2", x.Id))
	require.NoError(t, svc.Move(ctx, "doc2", x.Id, 0))

	children, err := svc.Children(x.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc2", y.Id, "doc1"}, children)

	require.NoError(t, svc.Move(ctx, "doc1", y.Id, -1))
	assert.Equal(t, y.Id, svc.ParentOf("doc1"))

	root, err := svc.Children("")
	require.NoError(t, err)
	assert.Equal(t, []string{x.Id}, root)
}

func TestFolders_RejectsCycles(t *testing.T) {
	_, svc := newFolders(t)
	ctx := context.Background()

	x, err := svc.CreateFolder(ctx, "X", "")
	require.NoError(t, err)
	y, err := svc.CreateFolder(ctx, "Y", x.Id)
	require.NoError(t, err)

	assert.Error(t, svc.Move(ctx, x.Id, y.Id, 0))
	assert.Error(t, svc.Move(ctx, x.Id, x.Id, 0))
	assert.Equal(t, x.Id, svc.ParentOf(y.Id))
}

func TestFolders_DeleteRequiresEmpty(t *testing.T) {
	_, svc := newFolders(t)
	ctx := context.Background()

	x, err := svc.CreateFolder(ctx, "X", "")
	require.NoError(t, err)
	require.NoError(t, svc.Attach(ctx, "doc1", x.Id))

	assert.ErrorIs(t, svc.DeleteFolder(ctx, x.Id), entity.ErrFolderNotEmpty)
	assert.ErrorIs(t, svc.DeleteFolder(ctx, entity.RootFolderId), entity.ErrFolderNotFound)

	require.NoError(t, svc.Detach(ctx, "doc1"))
	require.NoError(t, svc.DeleteFolder(ctx, x.Id))
	_, err = svc.Children(x.Id)
	assert.ErrorIs(t, err, entity.ErrFolderNotFound)
}

func TestFolders_FailedPersistLeavesTreeUntouched(t *testing.T) {
	repo, svc := newFolders(t)
	ctx := context.Background()

	repo.FailSaves(errors.New("disk full"))
	_, err := svc.CreateFolder(ctx, "X", "")
	require.Error(t, err)

	children, err := svc.Children("")
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.Len(t, svc.Snapshot().Folders, 1)
}

func TestFolders_DetachUnknownDoesNotWrite(t *testing.T) {
	repo, svc := newFolders(t)

	require.NoError(t, svc.Detach(context.Background(), "nothing"))
	assert.Equal(t, 0, repo.Saves())
}

func TestFolders_LoadRestoresPersistedTree(t *testing.T) {
	repo, svc := newFolders(t)
	ctx := context.Background()
	x, err := svc.CreateFolder(ctx, "X", "")
	require.NoError(t, err)

	reloaded := NewFolderService(repo, logger.NewNopLogger())
	require.NoError(t, reloaded.Load(ctx))
	children, err := reloaded.Children("")
	require.NoError(t, err)
	assert.Equal(t, []string{x.Id}, children)
}
