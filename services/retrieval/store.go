// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("tdp.retrieval")

// ArticleClassName is the Weaviate class holding chunked literature.
const ArticleClassName = "Article"

// DefaultSearchLimit bounds how many passages a single query returns.
const DefaultSearchLimit = 5

// Passage is one retrieved article chunk.
type Passage struct {
	Content   string
	Source    string
	Certainty float64
}

// ArticleStore wraps a Weaviate client scoped to the Article class.
type ArticleStore struct {
	client *weaviate.Client
	log    *slog.Logger
}

// NewArticleStore connects to the Weaviate instance at url. The URL may
// carry an http:// or https:// prefix; bare host:port defaults to http.
func NewArticleStore(url string, log *slog.Logger) (*ArticleStore, error) {
	if log == nil {
		log = slog.Default()
	}

	host, scheme := splitHostScheme(url)
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   host,
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &ArticleStore{client: client, log: log}, nil
}

func splitHostScheme(url string) (host, scheme string) {
	switch {
	case strings.HasPrefix(url, "https://"):
		return strings.TrimPrefix(url, "https://"), "https"
	case strings.HasPrefix(url, "http://"):
		return strings.TrimPrefix(url, "http://"), "http"
	default:
		return url, "http"
	}
}

// Ready reports whether the Weaviate instance answers its readiness
// probe. Callers use this to decide between retrieval-backed and plain
// prompts rather than failing the run.
func (s *ArticleStore) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		s.log.Warn("weaviate readiness probe failed", "error", err)
		return false
	}
	return ready
}

func articleSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       ArticleClassName,
		Description: "A chunk of curated technical-debt and refactoring literature.",
		Vectorizer:  "text2vec-transformers",
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The chunk text.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Chunk identity, <file>_part_<n>.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "parent_source",
				DataType:        []string{"text"},
				Description:     "The article file this chunk was split from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "ingested_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of when the chunk was ingested.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureSchema creates the Article class if the instance does not have
// it yet. Existing classes are left untouched.
func (s *ArticleStore) EnsureSchema(ctx context.Context) error {
	class := articleSchema()

	_, err := s.client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
	if err == nil {
		s.log.Info("schema already exists", "class", class.Class)
		return nil
	}

	s.log.Info("schema not found, creating it", "class", class.Class)
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create schema for class %s: %w", class.Class, err)
	}
	return nil
}

// chunkID derives a stable UUID from the chunk text so re-ingesting the
// same article updates objects in place instead of duplicating them.
func chunkID(text string) strfmt.UUID {
	hash := sha256.Sum256([]byte(text))
	id, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(id.String())
}

// IngestArticle chunks one article and batch-writes the chunks. It
// returns the number of chunks Weaviate accepted.
func (s *ArticleStore) IngestArticle(ctx context.Context, source, content string) (int, error) {
	ctx, span := tracer.Start(ctx, "ArticleStore.IngestArticle")
	defer span.End()

	chunks, err := ChunkArticle(source, content)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		s.log.Warn("no chunks produced after splitting", "source", source)
		return 0, nil
	}
	s.log.Info("split article into chunks", "source", source, "chunk_count", len(chunks))

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		objects[i] = &models.Object{
			Class: ArticleClassName,
			ID:    chunkID(chunk.Text),
			Properties: map[string]interface{}{
				"content":       chunk.Text,
				"source":        fmt.Sprintf("%s_part_%d", chunk.Source, chunk.Part),
				"parent_source": chunk.Source,
				"ingested_at":   time.Now().UnixMilli(),
			},
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("batch import to weaviate: %w", err)
	}

	accepted := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			accepted++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil {
			for _, errItem := range item.Result.Errors.Error {
				s.log.Warn("weaviate batch item failed", "source", source, "error", errItem.Message)
			}
		}
	}

	s.log.Info("ingested article", "source", source, "chunks_accepted", accepted)
	return accepted, nil
}

// Search runs a NearText query over the Article class and returns the
// best-matching passages.
func (s *ArticleStore) Search(ctx context.Context, concepts []string, limit int) ([]Passage, error) {
	ctx, span := tracer.Start(ctx, "ArticleStore.Search")
	defer span.End()

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().WithConcepts(concepts)

	result, err := s.client.GraphQL().Get().
		WithClassName(ArticleClassName).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "parent_source"},
			graphql.Field{Name: "_additional { certainty }"},
		).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("article search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("article search: %s", result.Errors[0].Message)
	}

	passages := parsePassages(result)
	s.log.Info("retrieved background passages", "concepts", strings.Join(concepts, ", "), "count", len(passages))
	return passages, nil
}

func parsePassages(result *models.GraphQLResponse) []Passage {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := data[ArticleClassName].([]interface{})
	if !ok {
		return nil
	}

	passages := make([]Passage, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		var p Passage
		p.Content, _ = m["content"].(string)
		p.Source, _ = m["parent_source"].(string)
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			if c, ok := add["certainty"].(float64); ok {
				p.Certainty = c
			}
		}
		if p.Content != "" {
			passages = append(passages, p)
		}
	}
	return passages
}

// BackgroundBlock renders retrieved passages as the prompt's background
// knowledge section body. Empty input yields an empty string so the
// section can be skipped entirely.
func BackgroundBlock(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, fmt.Sprintf("[%s]\n%s", p.Source, strings.TrimSpace(p.Content)))
	}
	return strings.Join(parts, "\n\n")
}
