// Package analyzer classifies the logical relation between two markets
// using a large language model, per spec.md §4.4.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"google.golang.org/genai"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/internal/ratelimit"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// analyzerVersion is bumped whenever the prompt or output contract changes,
// so a memoized result computed under an old prompt is never served after
// an upgrade.
const analyzerVersion = "v1"

// rawRelation is the JSON shape the model is asked to emit.
type rawRelation struct {
	Relation             string   `json:"relation"`
	Confidence           float64  `json:"confidence"`
	Reasoning            string   `json:"reasoning"`
	EdgeCases            []string `json:"edge_cases"`
	ResolutionCompatible bool     `json:"resolution_compatible"`
}

type rawExhaustive struct {
	IsComplete   bool     `json:"is_complete"`
	Confidence   float64  `json:"confidence"`
	MissingCases []string `json:"missing_cases"`
}

// generator is the subset of a chat-model client the Analyzer needs. The
// production implementation wraps genai.Client; tests supply a fake.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer implements domain.Analyzer against a chat-model generator, with
// a single-writer memoization cache keyed by (ordered market pair,
// analyzer version) so a pair consulted by two different strategies in the
// same scan costs one call (spec.md §4.4).
type Analyzer struct {
	gen      generator
	bucket   *ratelimit.Bucket
	lookup   func(marketID string) (*types.Market, bool)
	maxCalls int // scan.max_llm_calls; 0 means unlimited

	cache cache

	calls   atomic.Int64
	skipped atomic.Int64
}

// CallCount reports how many generation calls this Analyzer has actually
// issued (memo hits don't count), so the Orchestrator can report
// llm_calls_used and enforce scan.max_llm_calls (spec.md §6.4, §6.5).
func (a *Analyzer) CallCount() int { return int(a.calls.Load()) }

// BudgetExhaustedCount reports how many pairs were skipped after
// scan.max_llm_calls was reached (spec.md §4.4, §7 ANALYZER_BUDGET_EXHAUSTED).
func (a *Analyzer) BudgetExhaustedCount() int { return int(a.skipped.Load()) }

func New(gen generator, bucket *ratelimit.Bucket, lookup func(marketID string) (*types.Market, bool)) *Analyzer {
	return &Analyzer{
		gen:    gen,
		bucket: bucket,
		lookup: lookup,
		cache:  newCache(),
	}
}

// WithMaxCalls caps the number of generation calls this Analyzer will
// actually issue over its lifetime; calls beyond the cap are skipped and
// downgraded to INDEPENDENT rather than reaching the model (spec.md §4.4's
// "when the budget is exhausted, remaining pairs are skipped").
func (a *Analyzer) WithMaxCalls(n int) *Analyzer {
	a.maxCalls = n
	return a
}

// budgetExceeded reports whether issuing one more generation call would
// exceed scan.max_llm_calls. maxCalls <= 0 means unlimited.
func (a *Analyzer) budgetExceeded() bool {
	return a.maxCalls > 0 && int(a.calls.Load()) >= a.maxCalls
}

// GenAIGenerator adapts a genai.Client into the generator interface,
// grounded on the pack's single-client Gemini usage
// (najim2004-mrcrypto-go's AIService.ValidateSignal).
type GenAIGenerator struct {
	Client *genai.Client
	Model  string
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

var _ domain.Analyzer = (*Analyzer)(nil)

// Analyze classifies the relation between two markets, consulting the
// memo cache first. The cache key keeps the caller's market_a/market_b
// order, so (A,B) and (B,A) are memoized separately, and the prompt
// presents them in that same order.
func (a *Analyzer) Analyze(marketAID, marketBID string) (*domain.RelationshipAnalysis, error) {
	key := cacheKey(marketAID, marketBID)
	if cached, ok := a.cache.get(key); ok {
		return cached, nil
	}

	marketA, okA := a.lookup(marketAID)
	marketB, okB := a.lookup(marketBID)
	if !okA || !okB {
		return nil, fmt.Errorf("analyzer: unknown market pair (%s, %s)", marketAID, marketBID)
	}

	analysis, err := a.analyzeUncached(context.Background(), marketA, marketB)
	if err != nil {
		return nil, err
	}
	a.cache.computeOnce(key, analysis)
	return analysis, nil
}

func (a *Analyzer) analyzeUncached(ctx context.Context, marketA, marketB *types.Market) (*domain.RelationshipAnalysis, error) {
	if a.budgetExceeded() {
		a.skipped.Add(1)
		return fallbackIndependent("budget_exhausted"), nil
	}

	prompt := relationPrompt(marketA, marketB)

	text, err := a.generate(ctx, prompt)
	if err != nil {
		return fallbackIndependent("generation error: " + err.Error()), nil
	}

	raw, err := decodeRelation(text)
	if err != nil {
		// One retry on parse failure, per spec.md §4.4.
		text2, err2 := a.generate(ctx, prompt)
		if err2 != nil {
			return fallbackIndependent("parse_failure"), nil
		}
		raw, err = decodeRelation(text2)
		if err != nil {
			return fallbackIndependent("parse_failure"), nil
		}
	}

	analysis := &domain.RelationshipAnalysis{
		Relation:             domain.ParseRelationType(raw.Relation),
		Confidence:           raw.Confidence,
		Reasoning:            raw.Reasoning,
		EdgeCases:            raw.EdgeCases,
		ResolutionCompatible: raw.ResolutionCompatible,
	}
	analysis.EnforceConsistency()
	return analysis, nil
}

// VerifyExhaustiveSet asks whether markets are mutually exclusive and
// collectively exhaustive (spec.md §4.4).
func (a *Analyzer) VerifyExhaustiveSet(marketIDs []string) (bool, float64, []string, error) {
	markets := make([]*types.Market, 0, len(marketIDs))
	for _, id := range marketIDs {
		m, ok := a.lookup(id)
		if !ok {
			return false, 0, nil, fmt.Errorf("analyzer: unknown market %s", id)
		}
		markets = append(markets, m)
	}

	if a.budgetExceeded() {
		a.skipped.Add(1)
		return false, 0, nil, nil
	}

	prompt := exhaustivePrompt(markets)
	text, err := a.generate(context.Background(), prompt)
	if err != nil {
		return false, 0, nil, err
	}

	var raw rawExhaustive
	if err := decodeJSON(text, &raw); err != nil {
		text2, err2 := a.generate(context.Background(), prompt)
		if err2 != nil {
			return false, 0, nil, nil
		}
		if err := decodeJSON(text2, &raw); err != nil {
			return false, 0, nil, nil
		}
	}
	return raw.IsComplete, raw.Confidence, raw.MissingCases, nil
}

func (a *Analyzer) generate(ctx context.Context, prompt string) (string, error) {
	if a.budgetExceeded() {
		a.skipped.Add(1)
		return "", fmt.Errorf("analyzer: %s", "budget_exhausted")
	}
	if err := a.bucket.Wait(ctx); err != nil {
		return "", err
	}
	a.calls.Add(1)
	return a.gen.Generate(ctx, prompt)
}

func fallbackIndependent(reason string) *domain.RelationshipAnalysis {
	return &domain.RelationshipAnalysis{
		Relation:   domain.RelationIndependent,
		Confidence: 0.0,
		Reasoning:  reason,
		EdgeCases:  []string{reason},
	}
}

func decodeRelation(text string) (rawRelation, error) {
	var raw rawRelation
	err := decodeJSON(text, &raw)
	return raw, err
}

// decodeJSON recovers a possibly-malformed LLM JSON response: first via
// json-repair, falling back to manual markdown-fence stripping
// (najim2004-mrcrypto-go's extractJSONFromMarkdown-grounded) if repair
// itself fails to produce valid JSON.
func decodeJSON(text string, out any) error {
	repaired, err := jsonrepair.RepairJSON(text)
	if err == nil {
		if jerr := json.Unmarshal([]byte(repaired), out); jerr == nil {
			return nil
		}
	}
	stripped := stripMarkdownFence(text)
	return json.Unmarshal([]byte(stripped), out)
}

func stripMarkdownFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

func relationPrompt(a, b *types.Market) string {
	return fmt.Sprintf(`You are classifying the logical relation between two prediction-market questions.

Market A: %q
Market A resolution rules: %q

Market B: %q
Market B resolution rules: %q

Respond ONLY with JSON of this exact shape:
{"relation": "IMPLIES_AB"|"IMPLIES_BA"|"EQUIVALENT"|"MUTUAL_EXCLUSIVE"|"EXHAUSTIVE"|"INDEPENDENT", "confidence": <0.0-1.0>, "reasoning": "<one paragraph, must reference the resolution rules above>", "edge_cases": ["<string>", ...], "resolution_compatible": <bool>}

IMPLIES_AB means A being true forces B true. Only claim a relation other than INDEPENDENT when the resolution rules genuinely support it.`,
		a.Question, a.Description, b.Question, b.Description)
}

func exhaustivePrompt(markets []*types.Market) string {
	var sb strings.Builder
	sb.WriteString("You are checking whether the following prediction-market questions are mutually exclusive and collectively exhaustive outcomes of one event.\n\n")
	for i, m := range markets {
		fmt.Fprintf(&sb, "Market %d: %q\nResolution rules: %q\n\n", i+1, m.Question, m.Description)
	}
	sb.WriteString(`Respond ONLY with JSON of this exact shape:
{"is_complete": <bool>, "confidence": <0.0-1.0>, "missing_cases": ["<string>", ...]}`)
	return sb.String()
}
