package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
)

const excerptRunes = 200

// Linker connects a document to related material elsewhere in its owner's
// library.
type Linker struct {
	retriever *Retriever
	docs      document.Repository
}

func NewLinker(retriever *Retriever, docs document.Repository) *Linker {
	return &Linker{retriever: retriever, docs: docs}
}

// CrossReference returns a note listing related excerpts from the owner's
// other documents, or "" when there are none.
func (l *Linker) CrossReference(ctx context.Context, ownerID, docID uuid.UUID) (string, error) {
	doc, err := l.docs.Get(ctx, ownerID, docID)
	if err != nil {
		return "", err
	}
	return l.Note(ctx, doc)
}

func (l *Linker) Note(ctx context.Context, doc *models.Document) (string, error) {
	results, err := l.retriever.Related(ctx, doc)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	groups := groupBySource(results)

	var sb strings.Builder
	sb.WriteString("Related material from your other documents:\n")
	written := 0
	for _, g := range groups {
		src, err := l.docs.GetByID(ctx, g.documentID)
		if err != nil {
			// deleted between search and lookup
			continue
		}
		fmt.Fprintf(&sb, "\n%s\n", src.Filename)
		for _, r := range g.results {
			fmt.Fprintf(&sb, "  - %s\n", excerpt(r.Content))
		}
		written++
	}
	if written == 0 {
		return "", nil
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

type sourceGroup struct {
	documentID uuid.UUID
	results    []vectorstore.SearchResult
}

// groupBySource keeps documents in order of their best-ranked chunk.
func groupBySource(results []vectorstore.SearchResult) []sourceGroup {
	var groups []sourceGroup
	index := make(map[uuid.UUID]int)
	for _, r := range results {
		i, ok := index[r.DocumentID]
		if !ok {
			i = len(groups)
			index[r.DocumentID] = i
			groups = append(groups, sourceGroup{documentID: r.DocumentID})
		}
		groups[i].results = append(groups[i].results, r)
	}
	return groups
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if p := Prefix(s, excerptRunes); p != s {
		return p + "..."
	}
	return s
}
