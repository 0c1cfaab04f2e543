package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/pkg/events"
	"notehub-engine/pkg/origin"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const referenceModule = "ReferenceRegistry"

type AddReferenceRequest struct {
	OriginKind  entity.OriginKind
	OriginId    string
	Title       string
	PreviewKind entity.PreviewKind
	ParentId    string
}

type IReferenceService interface {
	// AddReference returns the id of the existing node when one already
	// points at the same origin from the same folder.
	AddReference(ctx context.Context, req AddReferenceRequest) (string, error)
	AddTextbookRef(ctx context.Context, textbookId, parentId string) (string, error)
	AddExamRef(ctx context.Context, sessionId, parentId string) (string, error)
	AddFileRef(ctx context.Context, fileId, parentId string) (string, error)
	RemoveReference(ctx context.Context, id string) error
	Get(id string) (*entity.ReferenceNode, bool)
	List() []*entity.ReferenceNode

	// ValidateReference never fails because the origin check failed; that
	// records the node as invalid.
	ValidateReference(ctx context.Context, id string) (bool, error)
	BatchValidate(ctx context.Context, ids []string) map[string]bool
	IsInvalid(id string) entity.Tristate
	CleanupInvalid(ctx context.Context) (int, error)
	RefreshTitle(ctx context.Context, id string) (string, error)
	Touch(ctx context.Context, id string) error
}

type referenceService struct {
	tree        IFolderService
	origins     *origin.Registry
	publisher   events.Publisher
	log         logger.ILogger
	validations *cache.Cache
	concurrency int
	now         func() time.Time
}

func NewReferenceService(
	tree IFolderService,
	origins *origin.Registry,
	publisher events.Publisher,
	log logger.ILogger,
	validationTTL time.Duration,
	concurrency int,
) IReferenceService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &referenceService{
		tree:        tree,
		origins:     origins,
		publisher:   publisher,
		log:         log,
		validations: cache.New(validationTTL, 2*validationTTL),
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (s *referenceService) AddReference(ctx context.Context, req AddReferenceRequest) (string, error) {
	if req.OriginId == "" {
		return "", fmt.Errorf("add reference: empty origin id")
	}
	parentId := folderOrRoot(req.ParentId)
	now := s.now()
	node := &entity.ReferenceNode{
		Id:             uuid.NewString(),
		OriginKind:     req.OriginKind,
		OriginId:       req.OriginId,
		Title:          req.Title,
		PreviewKind:    req.PreviewKind,
		ParentId:       parentId,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	if node.PreviewKind == "" {
		node.PreviewKind = entity.PreviewNone
	}

	id := node.Id
	err := s.tree.Mutate(ctx, func(tree *entity.Tree) error {
		parent, ok := tree.Folders[parentId]
		if !ok {
			return entity.ErrFolderNotFound
		}
		if existing := tree.FindReference(node.OriginKind, node.OriginId, parentId); existing != nil {
			id = existing.Id
			return ErrUnchanged
		}
		tree.References[node.Id] = node
		parent.Children = append(parent.Children, node.Id)
		return nil
	})
	if err != nil {
		return "", err
	}

	if id == node.Id {
		s.log.Info(referenceModule, "Reference added", map[string]interface{}{
			"reference_id": id,
			"origin_kind":  node.OriginKind,
			"origin_id":    node.OriginId,
		})
	}
	return id, nil
}

func (s *referenceService) addResolved(ctx context.Context, kind entity.OriginKind, originId, parentId string) (string, error) {
	req := AddReferenceRequest{OriginKind: kind, OriginId: originId, Title: originId, ParentId: parentId}
	p, _ := s.origins.Lookup(kind)
	if p != nil {
		info, err := p.Resolve(ctx, originId)
		switch {
		case err != nil:
			s.log.Warn(referenceModule, "Could not resolve origin title", map[string]interface{}{
				"origin_kind": kind,
				"origin_id":   originId,
				"error":       err,
			})
		case info != nil:
			req.Title = info.Title
			req.PreviewKind = info.PreviewKind
		}
	}
	return s.AddReference(ctx, req)
}

func (s *referenceService) AddTextbookRef(ctx context.Context, textbookId, parentId string) (string, error) {
	return s.addResolved(ctx, entity.OriginTextbook, textbookId, parentId)
}

func (s *referenceService) AddExamRef(ctx context.Context, sessionId, parentId string) (string, error) {
	return s.addResolved(ctx, entity.OriginExam, sessionId, parentId)
}

func (s *referenceService) AddFileRef(ctx context.Context, fileId, parentId string) (string, error) {
	return s.addResolved(ctx, entity.OriginFile, fileId, parentId)
}

func (s *referenceService) RemoveReference(ctx context.Context, id string) error {
	err := s.tree.Mutate(ctx, func(tree *entity.Tree) error {
		if _, ok := tree.References[id]; !ok {
			return entity.ErrNodeNotFound
		}
		delete(tree.References, id)
		tree.Detach(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.validations.Delete(id)
	s.publisher.Publish(events.New(events.ReferenceRemoved, map[string]interface{}{"reference_id": id}))
	return nil
}

func (s *referenceService) Get(id string) (*entity.ReferenceNode, bool) {
	return s.tree.Reference(id)
}

func (s *referenceService) List() []*entity.ReferenceNode {
	tree := s.tree.Snapshot()
	out := make([]*entity.ReferenceNode, 0, len(tree.References))
	for _, r := range tree.References {
		out = append(out, r)
	}
	return out
}

func (s *referenceService) ValidateReference(ctx context.Context, id string) (bool, error) {
	node, ok := s.tree.Reference(id)
	if !ok {
		return false, fmt.Errorf("validate %s: %w", id, entity.ErrNodeNotFound)
	}

	p, _ := s.origins.Lookup(node.OriginKind)
	if p == nil {
		s.record(node, false)
		return false, nil
	}

	info, err := p.Resolve(ctx, node.OriginId)
	if err != nil {
		s.log.Warn(referenceModule, "Origin check failed, marking invalid", map[string]interface{}{
			"reference_id": id,
			"origin_kind":  node.OriginKind,
			"error":        fmt.Errorf("%w: %w", entity.ErrValidationFailed, err),
		})
	}
	valid := err == nil && info != nil
	s.record(node, valid)
	return valid, nil
}

func (s *referenceService) record(node *entity.ReferenceNode, valid bool) {
	state := entity.ValidationInvalid
	if valid {
		state = entity.ValidationValid
	}
	s.validations.SetDefault(node.Id, entity.ValidationEntry{
		ReferenceId: node.Id,
		State:       state,
		CheckedAt:   s.now(),
	})
	if !valid {
		s.publisher.Publish(events.New(events.ReferenceInvalidated, map[string]interface{}{
			"reference_id": node.Id,
			"origin_kind":  string(node.OriginKind),
			"origin_id":    node.OriginId,
		}))
	}
}

// BatchValidate checks ids concurrently. Ids that are not registered are
// left out of the result.
func (s *referenceService) BatchValidate(ctx context.Context, ids []string) map[string]bool {
	var mu sync.Mutex
	results := make(map[string]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			valid, err := s.ValidateReference(gctx, id)
			if err != nil {
				return nil
			}
			mu.Lock()
			results[id] = valid
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *referenceService) IsInvalid(id string) entity.Tristate {
	v, found := s.validations.Get(id)
	if !found {
		return entity.Unknown
	}
	switch v.(entity.ValidationEntry).State {
	case entity.ValidationInvalid:
		return entity.True
	case entity.ValidationValid:
		return entity.False
	default:
		return entity.Unknown
	}
}

// CleanupInvalid removes every node last recorded as invalid, in one tree
// write, and returns how many were removed.
func (s *referenceService) CleanupInvalid(ctx context.Context) (int, error) {
	var invalid []string
	for id, item := range s.validations.Items() {
		if item.Object.(entity.ValidationEntry).State == entity.ValidationInvalid {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) == 0 {
		return 0, nil
	}

	var removed []string
	err := s.tree.Mutate(ctx, func(tree *entity.Tree) error {
		for _, id := range invalid {
			if _, ok := tree.References[id]; !ok {
				continue
			}
			delete(tree.References, id)
			tree.Detach(id)
			removed = append(removed, id)
		}
		if len(removed) == 0 {
			return ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range invalid {
		s.validations.Delete(id)
	}
	for _, id := range removed {
		s.publisher.Publish(events.New(events.ReferenceRemoved, map[string]interface{}{"reference_id": id}))
	}
	s.log.Info(referenceModule, "Invalid references cleaned up", map[string]interface{}{
		"removed": len(removed),
	})
	return len(removed), nil
}

func (s *referenceService) RefreshTitle(ctx context.Context, id string) (string, error) {
	node, ok := s.tree.Reference(id)
	if !ok {
		return "", fmt.Errorf("refresh %s: %w", id, entity.ErrNodeNotFound)
	}
	p, _ := s.origins.Lookup(node.OriginKind)
	if p == nil {
		return "", fmt.Errorf("refresh %s: no provider for %s", id, node.OriginKind)
	}
	info, err := p.Resolve(ctx, node.OriginId)
	if err != nil {
		return "", fmt.Errorf("refresh %s: %w", id, err)
	}
	if info == nil {
		s.record(node, false)
		return "", fmt.Errorf("refresh %s: %w", id, entity.ErrReferenceInvalid)
	}

	err = s.tree.Mutate(ctx, func(tree *entity.Tree) error {
		r, ok := tree.References[id]
		if !ok {
			return entity.ErrNodeNotFound
		}
		if r.Title == info.Title {
			return ErrUnchanged
		}
		r.Title = info.Title
		return nil
	})
	if err != nil {
		return "", err
	}
	s.record(node, true)
	return info.Title, nil
}

func (s *referenceService) Touch(ctx context.Context, id string) error {
	return s.tree.Mutate(ctx, func(tree *entity.Tree) error {
		r, ok := tree.References[id]
		if !ok {
			return entity.ErrNodeNotFound
		}
		r.LastAccessedAt = s.now()
		return nil
	})
}
