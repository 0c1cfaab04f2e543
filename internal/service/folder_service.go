package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/contract"

	"github.com/google/uuid"
)

const folderModule = "FolderTree"

// ErrUnchanged is returned from a Mutate callback that made no changes.
var ErrUnchanged = errors.New("tree unchanged")

type IFolderService interface {
	Load(ctx context.Context) error
	Snapshot() *entity.Tree
	Children(folderId string) ([]string, error)
	ParentOf(childId string) string
	Reference(id string) (*entity.ReferenceNode, bool)

	CreateFolder(ctx context.Context, title, parentId string) (*entity.Folder, error)
	RenameFolder(ctx context.Context, id, title string) error
	DeleteFolder(ctx context.Context, id string) error

	// Attach places childId under parentId ("" means root), detaching it
	// from any previous folder.
	Attach(ctx context.Context, childId, parentId string) error
	Detach(ctx context.Context, childId string) error
	Move(ctx context.Context, childId, parentId string, index int) error

	// Mutate applies fn to a copy of the tree, persists it and swaps it in.
	// Nothing changes if fn or the write fails. fn may return ErrUnchanged
	// to skip the write.
	Mutate(ctx context.Context, fn func(tree *entity.Tree) error) error
}

type folderService struct {
	repo contract.TreeRepository
	log  logger.ILogger

	mu   sync.Mutex
	tree *entity.Tree
}

func NewFolderService(repo contract.TreeRepository, log logger.ILogger) IFolderService {
	return &folderService{
		repo: repo,
		log:  log,
		tree: entity.NewTree(),
	}
}

func (s *folderService) Load(ctx context.Context) error {
	tree, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tree: %w", err)
	}
	s.mu.Lock()
	s.tree = tree.Clone()
	s.mu.Unlock()

	s.log.Info(folderModule, "Tree loaded", map[string]interface{}{
		"folders":    len(tree.Folders),
		"references": len(tree.References),
	})
	return nil
}

func (s *folderService) Snapshot() *entity.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Clone()
}

func (s *folderService) Children(folderId string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.tree.Folders[folderOrRoot(folderId)]
	if !ok {
		return nil, entity.ErrFolderNotFound
	}
	return slices.Clone(f.Children), nil
}

func (s *folderService) ParentOf(childId string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.ParentOf(childId)
}

func (s *folderService) Reference(id string) (*entity.ReferenceNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.tree.References[id]
	if !ok {
		return nil, false
	}
	c := *ref
	return &c, true
}

func (s *folderService) Mutate(ctx context.Context, fn func(tree *entity.Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.tree.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		return err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		s.log.Error(folderModule, "Failed to persist tree", map[string]interface{}{"error": err})
		return fmt.Errorf("persist tree: %w", err)
	}
	s.tree = next
	return nil
}

func (s *folderService) CreateFolder(ctx context.Context, title, parentId string) (*entity.Folder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled folder"
	}
	folder := &entity.Folder{
		Id:       uuid.NewString(),
		Title:    title,
		ParentId: folderOrRoot(parentId),
		Children: []string{},
	}

	err := s.Mutate(ctx, func(tree *entity.Tree) error {
		parent, ok := tree.Folders[folder.ParentId]
		if !ok {
			return entity.ErrFolderNotFound
		}
		tree.Folders[folder.Id] = folder.Clone()
		parent.Children = append(parent.Children, folder.Id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *folderService) RenameFolder(ctx context.Context, id, title string) error {
	return s.Mutate(ctx, func(tree *entity.Tree) error {
		f, ok := tree.Folders[id]
		if !ok {
			return entity.ErrFolderNotFound
		}
		f.Title = strings.TrimSpace(title)
		return nil
	})
}

// DeleteFolder removes an empty, non-root folder.
func (s *folderService) DeleteFolder(ctx context.Context, id string) error {
	return s.Mutate(ctx, func(tree *entity.Tree) error {
		f, ok := tree.Folders[id]
		if !ok || id == entity.RootFolderId {
			return entity.ErrFolderNotFound
		}
		if len(f.Children) > 0 {
			return entity.ErrFolderNotEmpty
		}
		tree.Detach(id)
		delete(tree.Folders, id)
		return nil
	})
}

func (s *folderService) Attach(ctx context.Context, childId, parentId string) error {
	return s.Move(ctx, childId, parentId, -1)
}

func (s *folderService) Detach(ctx context.Context, childId string) error {
	return s.Mutate(ctx, func(tree *entity.Tree) error {
		if !tree.Detach(childId) {
			return ErrUnchanged
		}
		return nil
	})
}

// Move places childId at index within parentId. A negative or out of range
// index appends.
func (s *folderService) Move(ctx context.Context, childId, parentId string, index int) error {
	parentId = folderOrRoot(parentId)
	return s.Mutate(ctx, func(tree *entity.Tree) error {
		parent, ok := tree.Folders[parentId]
		if !ok {
			return entity.ErrFolderNotFound
		}
		if childId == parentId || isAncestor(tree, childId, parentId) {
			return fmt.Errorf("move %s into %s: would create a cycle", childId, parentId)
		}
		if ref, ok := tree.References[childId]; ok {
			if dup := tree.FindReference(ref.OriginKind, ref.OriginId, parentId); dup != nil && dup.Id != childId {
				return fmt.Errorf("move %s into %s: %w", childId, parentId, entity.ErrDuplicateReference)
			}
		}

		tree.Detach(childId)
		if index < 0 || index > len(parent.Children) {
			index = len(parent.Children)
		}
		parent.Children = slices.Insert(parent.Children, index, childId)

		if f, ok := tree.Folders[childId]; ok {
			f.ParentId = parentId
		}
		if r, ok := tree.References[childId]; ok {
			r.ParentId = parentId
		}
		return nil
	})
}

// isAncestor reports whether folder id is an ancestor of descendant.
func isAncestor(tree *entity.Tree, id, descendant string) bool {
	if _, ok := tree.Folders[id]; !ok {
		return false
	}
	for cur := descendant; cur != "" && cur != entity.RootFolderId; {
		f, ok := tree.Folders[cur]
		if !ok {
			return false
		}
		if f.ParentId == id {
			return true
		}
		cur = f.ParentId
	}
	return false
}

func folderOrRoot(id string) string {
	if id == "" {
		return entity.RootFolderId
	}
	return id
}
