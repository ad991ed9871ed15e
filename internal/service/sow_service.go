package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stratumlab/sowforge/internal/ai"
	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
	"github.com/stratumlab/sowforge/internal/retry"
)

const (
	systemFraming = "You are an expert delivery lead creating structured SOWs."

	noConstraints = "None provided"
	noContext     = "No context retrieved"

	snippetSeparator = "\n---\n"

	defaultTitle = "Statement of Work"
	defaultTone  = "professional"
)

// sowStore is the persistence surface the service needs. *repo.SOWRepo
// implements it.
type sowStore interface {
	Create(ctx context.Context, sow *model.SOWDocument) error
	Get(ctx context.Context, userID, sowID string) (*model.SOWDocument, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.SOWDocument, error)
}

// SOWService assembles a grounded prompt from structured inputs and
// retrieved snippets. With no generation backend configured the prompt
// itself becomes the artifact body, which keeps the whole pipeline
// testable offline.
type SOWService struct {
	sows      sowStore
	documents *DocumentService
	generator ai.IGenerator
	runner    *retry.Runner
}

func NewSOWService(sows sowStore, documents *DocumentService, generator ai.IGenerator, runner *retry.Runner) *SOWService {
	return &SOWService{
		sows:      sows,
		documents: documents,
		generator: generator,
		runner:    runner,
	}
}

// Generate creates one immutable artifact. Requirements must be
// non-empty; empty constraints and snippets fall back to explicit
// sentinel lines so the prompt shape never varies.
func (s *SOWService) Generate(ctx context.Context, userID string, req *model.SOWRequest) (*model.SOWDocument, error) {
	if len(req.Requirements) == 0 {
		return nil, fmt.Errorf("%w: requirements must not be empty", apperr.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("project_id", req.ProjectID))

	tone := req.Tone
	if tone == "" {
		tone = defaultTone
	}
	snippets := req.ContextSnippets
	if len(snippets) == 0 && s.documents != nil {
		retrieved, err := s.retrieveContext(ctx, req)
		if err != nil {
			logger.Warn("context retrieval failed, generating without grounding", zap.Error(err))
		} else {
			snippets = retrieved
		}
	}

	prompt := BuildPrompt(req.ProjectID, req.Requirements, req.Constraints, snippets, tone)
	body := prompt
	if s.generator != nil {
		err := s.runner.Do(ctx, "sow-generate", func() error {
			var gerr error
			body, gerr = s.generator.Generate(ctx, systemFraming, prompt)
			return gerr
		})
		if err != nil {
			return nil, err
		}
	}

	title := req.Title
	if title == "" {
		title = defaultTitle
	}
	sow := &model.SOWDocument{
		ID:        newID(),
		UserID:    userID,
		ProjectID: req.ProjectID,
		Title:     title,
		Body:      body,
		Metadata: map[string]string{
			"requirements": strings.Join(req.Requirements, "\n"),
			"constraints":  strings.Join(req.Constraints, "\n"),
			"tone":         tone,
		},
		Ctime: time.Now().UnixMilli(),
	}
	if err := s.sows.Create(ctx, sow); err != nil {
		return nil, err
	}
	logger.Info("sow generated", zap.String("sow_id", sow.ID), zap.Int("snippets", len(snippets)))
	return sow, nil
}

func (s *SOWService) Get(ctx context.Context, userID, sowID string) (*model.SOWDocument, error) {
	return s.sows.Get(ctx, userID, sowID)
}

func (s *SOWService) List(ctx context.Context, userID string, offset, limit int) ([]model.SOWDocument, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.sows.ListByUser(ctx, userID, offset, limit)
}

func (s *SOWService) retrieveContext(ctx context.Context, req *model.SOWRequest) ([]string, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = strings.TrimSpace(req.Title + " " + strings.Join(req.Requirements, " "))
	}
	results, err := s.documents.Search(ctx, query, defaultTopK)
	if err != nil {
		return nil, err
	}
	snippets := make([]string, 0, len(results))
	for _, result := range results {
		snippets = append(snippets, result.Content)
	}
	return snippets, nil
}

// BuildPrompt is deterministic string templating: same inputs, same
// prompt, byte for byte.
func BuildPrompt(projectID string, requirements, constraints, snippets []string, tone string) string {
	requirementText := strings.Join(requirements, "\n- ")
	constraintText := noConstraints
	if len(constraints) > 0 {
		constraintText = strings.Join(constraints, "\n- ")
	}
	contextText := noContext
	if len(snippets) > 0 {
		contextText = strings.Join(snippets, snippetSeparator)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Create a structured Statement of Work for project %s in a %s tone.\n", projectID, tone)
	b.WriteString("Include executive summary, scope, deliverables, milestones, assumptions, dependencies,\n")
	b.WriteString("acceptance criteria, and a RACI table. Use bullet lists where helpful.\n")
	b.WriteString("\n")
	b.WriteString("Requirements:\n- " + requirementText + "\n")
	b.WriteString("\n")
	b.WriteString("Constraints:\n- " + constraintText + "\n")
	b.WriteString("\n")
	b.WriteString("Retrieved context:\n" + contextText)
	return b.String()
}
