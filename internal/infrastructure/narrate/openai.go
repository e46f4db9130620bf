// Package narrate generates written insight summaries for analysis results
// through the OpenAI chat completions API.
package narrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/service"
	"github.com/YodaWagyu/everything-switching/internal/domain/useCases"
)

const systemPrompt = "You are a retail analytics expert specializing in customer behavior " +
	"and brand switching analysis. Provide clear, actionable insights based on data."

// OpenAINarrator implements the Narrator interface against OpenAI.
type OpenAINarrator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

func NewOpenAINarrator(cfg Config) *OpenAINarrator {
	return &OpenAINarrator{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

var _ useCases.Narrator = (*OpenAINarrator)(nil)

// Narrate builds the analyst prompt from the result and asks the model for a
// markdown insight summary.
func (n *OpenAINarrator) Narrate(ctx context.Context, req model.AnalysisRequest, result *model.AnalysisResult) (string, error) {
	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       n.model,
		Temperature: n.temperature,
		MaxTokens:   n.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req, result)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("insight generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("insight generation returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt summarizes the result into the prompt sent to the model:
// movement breakdown, the biggest gainers and losers by net movement, and
// the largest switching flows.
func BuildPrompt(req model.AnalysisRequest, result *model.AnalysisResult) string {
	var stayed, switched, newCust, lost, total int
	for _, s := range result.Summaries {
		stayed += s.StayedCount
		switched += s.SwitchedInCount
		newCust += s.NewCount
		lost += s.LostCount
	}
	total = stayed + switched + newCust + lost

	byNet := make([]model.SwitchSummary, len(result.Summaries))
	copy(byNet, result.Summaries)
	sort.SliceStable(byNet, func(i, j int) bool {
		return byNet[i].NetChange.Cmp(byNet[j].NetChange) > 0
	})
	gainers := byNet[:min(3, len(byNet))]
	losers := byNet[max(0, len(byNet)-3):]

	topFlows := service.TopFlows(result.Flows, 5)

	var b strings.Builder
	fmt.Fprintf(&b, "You are analyzing customer switching patterns.\n\n")
	fmt.Fprintf(&b, "**Analysis Context:**\n")
	fmt.Fprintf(&b, "- Category: %s\n", req.Query.Category)
	fmt.Fprintf(&b, "- Analysis Type: %s\n", req.Query.Dimension)
	if len(req.Query.Brands) > 0 {
		fmt.Fprintf(&b, "- Brands Analyzed: %s\n", strings.Join(req.Query.Brands, ", "))
	} else {
		fmt.Fprintf(&b, "- Brands Analyzed: All\n")
	}
	fmt.Fprintf(&b, "- Comparison: %s..%s vs %s..%s\n", req.Query.BeforeStart, req.Query.BeforeEnd, req.Query.AfterStart, req.Query.AfterEnd)
	fmt.Fprintf(&b, "- Total Customers: %d\n\n", total)

	fmt.Fprintf(&b, "**Movement Breakdown:**\n")
	for _, line := range []struct {
		kind  model.MoveCategory
		count int
	}{
		{model.MoveStayed, stayed},
		{model.MoveSwitched, switched},
		{model.MoveNew, newCust},
		{model.MoveLost, lost},
	} {
		share := 0.0
		if total > 0 {
			share = float64(line.count) / float64(total) * 100
		}
		fmt.Fprintf(&b, "- %s: %d customers (%.1f%%)\n", line.kind, line.count, share)
	}

	fmt.Fprintf(&b, "\n**Top Gainers (Net Movement):**\n")
	for _, s := range gainers {
		fmt.Fprintf(&b, "- %s: net %s (before %d, after %d customers)\n", s.EntityID, s.NetChange, s.BeforeCount, s.AfterCount)
	}
	fmt.Fprintf(&b, "\n**Top Losers (Net Movement):**\n")
	for i := len(losers) - 1; i >= 0; i-- {
		s := losers[i]
		fmt.Fprintf(&b, "- %s: net %s (before %d, after %d customers)\n", s.EntityID, s.NetChange, s.BeforeCount, s.AfterCount)
	}

	fmt.Fprintf(&b, "\n**Top Switching Flows:**\n")
	for _, f := range topFlows {
		fmt.Fprintf(&b, "- %s -> %s: %d customers, value %s\n", f.FromEntity, f.ToEntity, f.CustomerCount, f.Value)
	}

	b.WriteString(`
**Your Task:**
Provide a comprehensive analysis with the following sections:

1. Executive Summary (2-3 sentences highlighting the most important finding)

2. Key Findings (3-5 bullet points covering):
   - Major winners and losers
   - Significant switching patterns
   - Notable trends

3. Strategic Recommendations (3-4 actionable recommendations based on the data)

Format your response in clean markdown. Be specific with numbers. Focus on actionable insights.
`)
	return b.String()
}
