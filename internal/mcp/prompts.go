package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts wires the migration planning prompts.
func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "plan_migration",
		Description: "Produce a step-by-step migration plan for a Python module, using the analysis tools to ground each step.",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "module_description",
				Description: "What the Python module does and roughly how large it is",
				Required:    true,
			},
			{
				Name:        "key_types",
				Description: "Comma-separated Python type expressions central to the module's API",
				Required:    false,
			},
		},
	}, s.handlePlanMigration)

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "review_conversion",
		Description: "Review a finished Python-to-TypeScript conversion for semantic drift, using differential testing where the code is pure.",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "python_code",
				Description: "The original Python code",
				Required:    true,
			},
			{
				Name:        "typescript_code",
				Description: "The converted TypeScript code",
				Required:    true,
			},
		},
	}, s.handleReviewConversion)

	s.logger.Info("MCP prompts registered", "count", 2)
}

func (s *Server) handlePlanMigration(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	desc := req.Params.Arguments["module_description"]
	if strings.TrimSpace(desc) == "" {
		return nil, NewInvalidParamsError("module_description argument is required")
	}
	keyTypes := req.Params.Arguments["key_types"]

	var b strings.Builder
	fmt.Fprintf(&b, "Plan the migration of this Python module to TypeScript.\n\n")
	fmt.Fprintf(&b, "## Module\n\n%s\n\n", desc)
	if strings.TrimSpace(keyTypes) != "" {
		b.WriteString("## Key types\n\n")
		for _, t := range strings.Split(keyTypes, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				fmt.Fprintf(&b, "- `%s`\n", t)
			}
		}
		b.WriteString("\nRun `analyze_type` on each key type first and order the work by the resulting migrationComplexity, hardest first.\n\n")
	}
	b.WriteString(`## Method

1. Call analyze_code_structure on the module source to surface dynamic features (eval, metaclasses, multiple inheritance) that need redesign rather than translation.
2. Call analyze_type on every public function signature's parameter and return types; collect the conversionNotes and runtimeConsiderations into the plan.
3. Call lookup_library for each third-party import to choose ecosystem replacements; prefer entries with migration_effort low.
4. Call search_knowledge for any construct you are unsure how to translate idiomatically.
5. Derive the test plan with suggest_testing_strategy for the central types, and validate pure functions with run_differential_test before deleting the Python originals.

Produce the plan as ordered milestones, each naming the code it covers, the target TypeScript shape, and its verification step.
`)

	return &mcp.GetPromptResult{
		Description: "Python to TypeScript migration plan",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: b.String()},
			},
		},
	}, nil
}

func (s *Server) handleReviewConversion(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	pyCode := req.Params.Arguments["python_code"]
	tsCode := req.Params.Arguments["typescript_code"]
	if strings.TrimSpace(pyCode) == "" || strings.TrimSpace(tsCode) == "" {
		return nil, NewInvalidParamsError("python_code and typescript_code arguments are required")
	}

	var b strings.Builder
	b.WriteString("Review this Python-to-TypeScript conversion for semantic drift.\n\n")
	fmt.Fprintf(&b, "## Original Python\n\n```python\n%s\n```\n\n", pyCode)
	fmt.Fprintf(&b, "## Converted TypeScript\n\n```typescript\n%s\n```\n\n", tsCode)
	b.WriteString(`## Checklist

- Numbers: integer division, floored vs truncated modulo, precision above 2^53.
- Truthiness: every Python collection emptiness check must be explicit in TS; empty arrays and objects are truthy.
- None handling: confirm the null/undefined convention is applied consistently, including JSON round-trips.
- Collections: dict iteration order, tuple arity, set identity semantics.
- Errors: exception types and which call sites swallow vs propagate.
- Async: confirm gather/Promise.all failure semantics match the original.

Where both versions expose the same pure function, call run_differential_test with boundary inputs (zero, negatives, empty collections, None/null) instead of reasoning about equivalence by eye. Report findings as: severity, location, Python behavior, TypeScript behavior, suggested fix.
`)

	return &mcp.GetPromptResult{
		Description: "Conversion review",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: b.String()},
			},
		},
	}, nil
}
