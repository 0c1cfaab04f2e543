package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/contract"
)

const tagModule = "TagService"

type BatchFailure struct {
	Id  string
	Err error
}

// BatchResult reports a multi-document operation per document. Skipped
// holds ids never attempted because the batch halted.
type BatchResult struct {
	Succeeded []string
	Failed    []BatchFailure
	Skipped   []string
}

type BatchOptions struct {
	HaltOnFailure bool
}

type TagCount struct {
	Name  string
	Count int
}

type ITagService interface {
	ListTags(ctx context.Context) ([]TagCount, error)
	AddTag(ctx context.Context, documentId, tag string) (*entity.Document, error)
	RemoveTag(ctx context.Context, documentId, tag string) (*entity.Document, error)
	// RenameTag rewrites the tag on every document carrying it, one
	// document at a time.
	RenameTag(ctx context.Context, from, to string, opts BatchOptions) (*BatchResult, error)
	DeleteTag(ctx context.Context, tag string, opts BatchOptions) (*BatchResult, error)
}

type tagService struct {
	store contract.DocumentStore
	cache IDocumentCacheService
	log   logger.ILogger
}

func NewTagService(store contract.DocumentStore, cache IDocumentCacheService, log logger.ILogger) ITagService {
	return &tagService{store: store, cache: cache, log: log}
}

func (s *tagService) ListTags(ctx context.Context) ([]TagCount, error) {
	docs, err := s.store.List(ctx, "/", entity.DocumentFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, d := range docs {
		for _, t := range d.Tags {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, TagCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *tagService) AddTag(ctx context.Context, documentId, tag string) (*entity.Document, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("add tag: empty tag")
	}
	return s.setTags(ctx, documentId, func(tags []string) []string {
		if slices.Contains(tags, tag) {
			return tags
		}
		return append(tags, tag)
	})
}

func (s *tagService) RemoveTag(ctx context.Context, documentId, tag string) (*entity.Document, error) {
	return s.setTags(ctx, documentId, func(tags []string) []string {
		return slices.DeleteFunc(tags, func(t string) bool { return t == tag })
	})
}

func (s *tagService) setTags(ctx context.Context, documentId string, edit func([]string) []string) (*entity.Document, error) {
	path := entity.PathFor(documentId)
	current, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("tags of %s: %w", documentId, entity.ErrNotFound)
	}

	tags := edit(slices.Clone(current.Tags))
	updated, err := s.store.SetMetadata(ctx, path, entity.MetadataFields{Tags: &tags})
	if err != nil {
		return nil, err
	}
	s.cache.Merge(updated)
	return updated, nil
}

func (s *tagService) RenameTag(ctx context.Context, from, to string, opts BatchOptions) (*BatchResult, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return nil, fmt.Errorf("rename tag: empty tag name")
	}
	return s.rewrite(ctx, from, opts, func(tags []string) []string {
		next := make([]string, 0, len(tags))
		for _, t := range tags {
			if t == from {
				t = to
			}
			if !slices.Contains(next, t) {
				next = append(next, t)
			}
		}
		return next
	})
}

func (s *tagService) DeleteTag(ctx context.Context, tag string, opts BatchOptions) (*BatchResult, error) {
	return s.rewrite(ctx, tag, opts, func(tags []string) []string {
		return slices.DeleteFunc(tags, func(t string) bool { return t == tag })
	})
}

// rewrite applies edit to every document tagged with tag, sequentially.
func (s *tagService) rewrite(ctx context.Context, tag string, opts BatchOptions, edit func([]string) []string) (*BatchResult, error) {
	docs, err := s.store.List(ctx, "/", entity.DocumentFilter{Tags: []string{tag}})
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, BatchFailure{Id: doc.Id, Err: err})
			for _, rest := range docs[i+1:] {
				result.Skipped = append(result.Skipped, rest.Id)
			}
			break
		}

		tags := edit(slices.Clone(doc.Tags))
		updated, err := s.store.SetMetadata(ctx, entity.PathFor(doc.Id), entity.MetadataFields{Tags: &tags})
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{Id: doc.Id, Err: err})
			s.log.Warn(tagModule, "Tag update failed", map[string]interface{}{
				"document_id": doc.Id,
				"tag":         tag,
				"error":       err,
			})
			if opts.HaltOnFailure {
				for _, rest := range docs[i+1:] {
					result.Skipped = append(result.Skipped, rest.Id)
				}
				break
			}
			continue
		}
		s.cache.Merge(updated)
		result.Succeeded = append(result.Succeeded, doc.Id)
	}

	s.log.Info(tagModule, "Tag batch finished", map[string]interface{}{
		"tag":       tag,
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
		"skipped":   len(result.Skipped),
	})
	return result, nil
}
