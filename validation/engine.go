/*
Package validation evaluates a fully-populated claim against an ordered
rule set, producing citation-backed flags and a readiness score.

PURPOSE:
  The engine answers "is this claim ready to submit, and if not, exactly
  why". Each rule carries its own regulation citation and suggested fix
  as static metadata, so a finding always explains itself.

DESIGN:
  Rules are data, not branching code: an ordered list of independent
  predicate records. Adding a regulation check means appending a Rule,
  never touching control flow.

SCORING:
  error = 15, warning = 5, info = 1
  score = max(0, 100 - sum(weights))
  Score is monotonically non-increasing as flags accumulate.

FAILURE ISOLATION:
  A rule that panics is caught, logged, and skipped; the report is marked
  Partial so callers know not to treat it as authoritative. One buggy rule
  must never abort the whole pass.

USAGE:
  engine := validation.NewEngine(logger)
  report := engine.Validate(ctx, record)
  // report.Flags, report.Score, report.Partial

SEE ALSO:
  - rules.go: The default rule set and Rule type
*/
package validation

import (
	"context"
	"log/slog"

	"github.com/warp/pcs-engine/claim"
)

// =============================================================================
// SCORE WEIGHTS
// =============================================================================

// Severity weights are policy constants, confirmed for concreteness rather
// than drawn from regulation text.
var severityWeights = map[claim.Severity]int{
	claim.SeverityError:   15,
	claim.SeverityWarning: 5,
	claim.SeverityInfo:    1,
}

// =============================================================================
// REPORT
// =============================================================================

// Report is the outcome of one validation pass.
type Report struct {
	Flags []claim.Flag `json:"flags"`
	Score int          `json:"score"` // [0, 100]

	// Partial means at least one rule failed to evaluate and was skipped;
	// the report is advisory, not authoritative.
	Partial bool `json:"partial"`
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// NewEngine builds an engine with the default rule set.
func NewEngine(logger *slog.Logger) *Engine {
	return NewEngineWithRules(logger, DefaultRules())
}

// NewEngineWithRules builds an engine with a custom ordered rule set.
func NewEngineWithRules(logger *slog.Logger, rules []Rule) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: rules, logger: logger}
}

// Validate runs every rule in order against the claim. It never returns an
// error: rule failures degrade to a partial report instead.
func (e *Engine) Validate(ctx context.Context, rec *claim.Record) Report {
	report := Report{}

	for _, rule := range e.rules {
		flag, ok := e.evaluate(ctx, rule, rec)
		if !ok {
			report.Partial = true
			continue
		}
		if flag != nil {
			report.Flags = append(report.Flags, *flag)
		}
	}

	report.Score = score(report.Flags)
	return report
}

// evaluate runs one rule with panic isolation. ok=false means the rule
// itself failed (not that the claim failed the rule).
func (e *Engine) evaluate(ctx context.Context, rule Rule, rec *claim.Record) (flag *claim.Flag, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("validation rule failed, skipping",
				slog.String("rule", rule.ID),
				slog.String("claim", rec.ID),
				slog.Any("panic", r),
			)
			flag, ok = nil, false
		}
	}()

	finding := rule.Check(ctx, rec)
	if finding == nil {
		return nil, true
	}

	severity := rule.Severity
	if finding.Severity != "" {
		severity = finding.Severity
	}
	return &claim.Flag{
		Field:        rule.Field,
		Category:     rule.Category,
		Severity:     severity,
		Citation:     rule.Citation,
		Message:      finding.Message,
		SuggestedFix: rule.SuggestedFix,
	}, true
}

func score(flags []claim.Flag) int {
	s := 100
	for _, f := range flags {
		s -= severityWeights[f.Severity]
	}
	if s < 0 {
		return 0
	}
	return s
}
