package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ruxlab/labvault/internal/study"
	"golang.org/x/sync/errgroup"
)

// membershipQueryLimit is the largest id set resolved with a single
// "in"-style membership query; larger sets fan out to parallel point reads.
const membershipQueryLimit = 10

// GetUserWithStudies loads the user and materializes both reference maps
// into full study documents. The merge overlays the per-user annotation with
// the authoritative study fields (study fields win on collision) and the
// result replaces the maps in the returned value only; nothing is persisted.
func (s *Service) GetUserWithStudies(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	testIDs := mapKeys(u.MyTests)
	answerIDs := mapKeys(u.MyAnswers)

	var testDocs, answerDocs []map[string]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		testDocs, err = s.fetchStudiesByIDs(gctx, testIDs)
		return err
	})
	g.Go(func() error {
		var err error
		answerDocs, err = s.fetchStudiesByIDs(gctx, answerIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return User{}, err
	}

	u.MyTests = mergeStudies(u.MyTests, testDocs)
	u.MyAnswers = mergeStudies(u.MyAnswers, answerDocs)
	return u, nil
}

// fetchStudiesByIDs resolves study ids to documents. Small sets use one
// membership query; large sets issue parallel point reads and silently drop
// ids whose study has since been deleted, preserving input order.
func (s *Service) fetchStudiesByIDs(ctx context.Context, ids []string) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	if len(ids) <= membershipQueryLimit {
		docs, err := s.studies.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("fetch studies: %w", err)
		}
		return docs, nil
	}

	resolved := make([]map[string]any, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			doc, err := s.studies.GetByID(gctx, id)
			if err != nil {
				if errors.Is(err, study.ErrStudyNotFound) {
					return nil
				}
				return fmt.Errorf("fetch study %s: %w", id, err)
			}
			resolved[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]map[string]any, 0, len(ids))
	for _, doc := range resolved {
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func mergeStudies(refs map[string]Annotation, docs []map[string]any) map[string]Annotation {
	merged := make(map[string]Annotation, len(docs))
	for _, doc := range docs {
		id, ok := doc["id"].(string)
		if !ok {
			continue
		}
		entry := Annotation{}
		for k, v := range refs[id] {
			entry[k] = v
		}
		for k, v := range doc {
			entry[k] = v
		}
		merged[id] = entry
	}
	return merged
}

func mapKeys(m map[string]Annotation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
