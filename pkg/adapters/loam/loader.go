package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository of fixture documents to ports.PayloadLoader.
type Loader struct {
	Repo *loam.TypedRepository[FixtureMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[FixtureMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode returns json.Number for every numeric value; read-only avoids Loam's
	// sandbox copy since fixtures are never written.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[FixtureMetadata](repo)), nil
}

// GetPayload loads the fixture named name ("intake" finds intake.md or intake.json).
func (l *Loader) GetPayload(name string) (*domain.Payload, error) {
	doc, err := l.Repo.Get(context.Background(), name)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", name, err)
	}

	p, err := domain.DecodePayload(doc.Data.raw())
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	if p.Title == "" {
		p.Title = trimExtension(name)
	}
	return p, nil
}

// Description returns the markdown body of a fixture document.
func (l *Loader) Description(name string) (string, error) {
	doc, err := l.Repo.Get(context.Background(), name)
	if err != nil {
		return "", fmt.Errorf("loam get failed for %s: %w", name, err)
	}
	return strings.TrimSpace(doc.Content), nil
}

// ListPayloads lists fixture names with extensions stripped.
func (l *Loader) ListPayloads() ([]string, error) {
	docs, err := l.Repo.List(context.Background())
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		name := trimExtension(rawID)

		if existingPath, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: fixture '%s' is defined in both '%s' and '%s'", name, existingPath, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	return names, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable, reporting the ID of each changed fixture.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
