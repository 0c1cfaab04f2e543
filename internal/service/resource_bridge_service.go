package service

import (
	"context"
	"fmt"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/pkg/events"
	"notehub-engine/pkg/origin"
)

const bridgeModule = "ResourceBridge"

// ChatReference is the outcome of attaching a node to the active chat.
// Resources lists every resource the origin produced; the first one is the
// one attached.
type ChatReference struct {
	SessionId  string
	ContextRef entity.ContextRef
	IsNew      bool
	Resources  []entity.SyncResult
}

type IResourceBridgeService interface {
	ReferenceToChat(ctx context.Context, nodeId string) (*ChatReference, error)
	// CanReferenceToChat runs the same checks as ReferenceToChat without
	// writing anything.
	CanReferenceToChat(ctx context.Context, nodeId string) error
}

type resourceBridgeService struct {
	cache      IDocumentCacheService
	references IReferenceService
	sessions   contract.SessionRegistry
	resources  contract.ResourceStore
	origins    *origin.Registry
	publisher  events.Publisher
	log        logger.ILogger
}

func NewResourceBridgeService(
	cache IDocumentCacheService,
	references IReferenceService,
	sessions contract.SessionRegistry,
	resources contract.ResourceStore,
	origins *origin.Registry,
	publisher events.Publisher,
	log logger.ILogger,
) IResourceBridgeService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &resourceBridgeService{
		cache:      cache,
		references: references,
		sessions:   sessions,
		resources:  resources,
		origins:    origins,
		publisher:  publisher,
		log:        log,
	}
}

// bridgeTarget is a node that passed every precondition.
type bridgeTarget struct {
	session   contract.SessionStore
	kind      entity.OriginKind
	originId  string
	reference *entity.ReferenceNode
}

// resolve is the single precondition routine shared by both operations.
// It reads only local state and the session list.
func (s *resourceBridgeService) resolve(ctx context.Context, nodeId string) (*bridgeTarget, error) {
	ids, err := s.sessions.GetAllSessionIds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, entity.ErrNoActiveSession
	}
	session, ok := s.sessions.Get(ctx, ids[0])
	if !ok {
		return nil, entity.ErrNoActiveSession
	}

	if _, ok := s.cache.Peek(nodeId); ok {
		return &bridgeTarget{session: session, kind: entity.OriginDocument, originId: nodeId}, nil
	}

	ref, ok := s.references.Get(nodeId)
	if !ok {
		return nil, fmt.Errorf("reference %s to chat: %w", nodeId, entity.ErrNodeNotFound)
	}
	if s.references.IsInvalid(nodeId) == entity.True {
		return nil, fmt.Errorf("reference %s to chat: %w", nodeId, entity.ErrReferenceInvalid)
	}
	return &bridgeTarget{session: session, kind: ref.OriginKind, originId: ref.OriginId, reference: ref}, nil
}

func (s *resourceBridgeService) CanReferenceToChat(ctx context.Context, nodeId string) error {
	_, err := s.resolve(ctx, nodeId)
	return err
}

func (s *resourceBridgeService) ReferenceToChat(ctx context.Context, nodeId string) (*ChatReference, error) {
	target, err := s.resolve(ctx, nodeId)
	if err != nil {
		return nil, err
	}

	p, known := s.origins.Lookup(target.kind)
	if !known {
		s.log.Debug(bridgeModule, "No provider for origin kind, using generic sync", map[string]interface{}{
			"origin_kind": target.kind,
		})
	}
	results, err := origin.Sync(ctx, p, target.kind, target.originId, s.resources)
	if err != nil {
		return nil, fmt.Errorf("sync %s/%s: %w", target.kind, target.originId, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("sync %s/%s: origin produced no content", target.kind, target.originId)
	}

	first := results[0]
	ref := entity.ContextRef{
		ResourceId:  first.ResourceId,
		ContentHash: first.ContentHash,
		TypeId:      entity.TypeIdForKind(target.kind),
	}
	if err := target.session.AddContextRef(ctx, ref); err != nil {
		return nil, fmt.Errorf("attach to session %s: %w", target.session.Id(), err)
	}

	if target.reference != nil {
		if err := s.references.Touch(ctx, target.reference.Id); err != nil {
			s.log.Warn(bridgeModule, "Could not record reference access", map[string]interface{}{
				"reference_id": target.reference.Id,
				"error":        err,
			})
		}
	}

	s.publisher.Publish(events.New(events.ContextAttached, map[string]interface{}{
		"session_id":   target.session.Id(),
		"resource_id":  ref.ResourceId,
		"content_hash": ref.ContentHash,
		"type_id":      ref.TypeId,
		"is_new":       first.IsNew,
	}))
	s.log.Info(bridgeModule, "Node attached to chat", map[string]interface{}{
		"node_id":    nodeId,
		"session_id": target.session.Id(),
		"resources":  len(results),
		"is_new":     first.IsNew,
	})

	return &ChatReference{
		SessionId:  target.session.Id(),
		ContextRef: ref,
		IsNew:      first.IsNew,
		Resources:  results,
	}, nil
}
