package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/rcliao/symptom-catalog/internal/guardrail"
	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/service"
	"github.com/rcliao/symptom-catalog/internal/store"
)

type extractInput struct {
	Transcript string `json:"transcript" jsonschema:"Free-text clinical transcript"`
	Guardrail  bool   `json:"guardrail,omitempty" jsonschema:"Also return the summarizer constraint block"`
}

type extractOutput struct {
	SymptomsPresent []model.ValidatedSymptom `json:"symptoms_present"`
	UnknownMentions []string                 `json:"unknown_mentions"`
	SymptomCount    int                      `json:"symptom_count"`
	UnknownCount    int                      `json:"unknown_count"`
	Guardrail       string                   `json:"guardrail,omitempty"`
}

type approveInput struct {
	Mention  string `json:"mention" jsonschema:"Unknown mention to bind, as reported by extract_symptoms"`
	Code     string `json:"code" jsonschema:"Catalog code, S followed by digits (e.g. S00031)"`
	Name     string `json:"name" jsonschema:"Canonical symptom name"`
	Category string `json:"category" jsonschema:"Symptom category"`
}

type approveOutput struct {
	Symptom model.Symptom `json:"symptom"`
}

type peekInput struct{}

type peekOutput struct {
	UnknownMentions []string `json:"unknown_mentions"`
}

type listReviewsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: pending or approved"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of items (default 50)"`
}

// reviewOutput flattens model.ReviewItem with string timestamps.
type reviewOutput struct {
	Mention      string `json:"mention"`
	SeenCount    int    `json:"seen_count"`
	Status       string `json:"status"`
	ResolvedCode string `json:"resolved_code,omitempty"`
	FirstSeenAt  string `json:"first_seen_at"`
	LastSeenAt   string `json:"last_seen_at"`
}

type listReviewsOutput struct {
	Reviews []reviewOutput `json:"reviews"`
}

type lookupInput struct {
	Phrase string `json:"phrase" jsonschema:"Symptom name or alias"`
}

type lookupOutput struct {
	Found   bool          `json:"found"`
	Symptom model.Symptom `json:"symptom"`
}

// registerTools registers every tool with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "extract_symptoms",
		Description: "Extract symptoms from a clinical transcript. Returns only catalog-validated " +
			"symptoms plus the unknown mentions that need human review.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args extractInput) (*mcp.CallToolResult, extractOutput, error) {
		start := time.Now()
		result, err := s.svc.Extract(ctx, args.Transcript)
		if err != nil {
			s.logger.Warn("tool failed", zap.String("tool", "extract_symptoms"), zap.Error(err))
			return nil, extractOutput{}, err
		}

		out := extractOutput{
			SymptomsPresent: result.Validated,
			UnknownMentions: result.Unknown,
			SymptomCount:    result.SymptomCount(),
			UnknownCount:    result.UnknownCount(),
		}
		if out.SymptomsPresent == nil {
			out.SymptomsPresent = []model.ValidatedSymptom{}
		}
		if out.UnknownMentions == nil {
			out.UnknownMentions = []string{}
		}
		if args.Guardrail {
			out.Guardrail = guardrail.Block(result)
		}
		s.logger.Debug("tool complete", zap.String("tool", "extract_symptoms"), zap.Duration("took", time.Since(start)))
		return nil, out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "approve_symptom",
		Description: "Approve an unknown mention: add it to the catalog under the given code. " +
			"An existing code gains the mention as an alias; a new code becomes a new entry.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args approveInput) (*mcp.CallToolResult, approveOutput, error) {
		sym, err := s.svc.Approve(ctx, service.ApproveParams{
			Mention:  args.Mention,
			Code:     args.Code,
			Name:     args.Name,
			Category: args.Category,
		})
		if err != nil {
			s.logger.Warn("tool failed", zap.String("tool", "approve_symptom"), zap.Error(err))
			return nil, approveOutput{}, err
		}
		return nil, approveOutput{Symptom: sym}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "peek_unknown_symptoms",
		Description: "Return the unknown mentions from the most recent extraction.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args peekInput) (*mcp.CallToolResult, peekOutput, error) {
		unknown := s.svc.PeekLastUnknowns()
		if unknown == nil {
			unknown = []string{}
		}
		return nil, peekOutput{UnknownMentions: unknown}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_reviews",
		Description: "List logged unknown mentions, most recently seen first.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listReviewsInput) (*mcp.CallToolResult, listReviewsOutput, error) {
		items, err := s.svc.Reviews(ctx, store.ListParams{Status: args.Status, Limit: args.Limit})
		if err != nil {
			return nil, listReviewsOutput{}, err
		}
		out := listReviewsOutput{Reviews: make([]reviewOutput, 0, len(items))}
		for _, it := range items {
			out.Reviews = append(out.Reviews, reviewOutput{
				Mention:      it.Mention,
				SeenCount:    it.SeenCount,
				Status:       it.Status,
				ResolvedCode: it.ResolvedCode,
				FirstSeenAt:  it.FirstSeenAt.Format(time.RFC3339),
				LastSeenAt:   it.LastSeenAt.Format(time.RFC3339),
			})
		}
		return nil, out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "lookup_symptom",
		Description: "Resolve a symptom name or alias against the catalog.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args lookupInput) (*mcp.CallToolResult, lookupOutput, error) {
		sym, ok := s.svc.Lookup(args.Phrase)
		if !ok {
			return nil, lookupOutput{Symptom: model.Symptom{Aliases: []string{}}}, nil
		}
		if sym.Aliases == nil {
			sym.Aliases = []string{}
		}
		return nil, lookupOutput{Found: true, Symptom: sym}, nil
	})
}
