package report

import (
	"fmt"
	"log/slog"
)

// Strategy extracts sections from raw report text. An empty result means the
// strategy does not apply and the next one should be tried.
type Strategy struct {
	Name    string
	Extract func(text string) []Section
}

// DefaultStrategies is the structured layout first, then the line heuristics.
var DefaultStrategies = []Strategy{
	{Name: "structured", Extract: ExtractStructured},
	{Name: "heuristic", Extract: ExtractHeuristic},
}

// Pipeline tries its strategies in order and falls back to a single section
// holding the sanitized text. It never fails and always returns at least one
// section.
type Pipeline struct {
	strategies []Strategy
}

// NewPipeline creates a Pipeline over the given strategies, or the default
// chain when none are given.
func NewPipeline(strategies ...Strategy) *Pipeline {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Pipeline{strategies: strategies}
}

var defaultPipeline = NewPipeline()

// Parse runs the default pipeline over text.
func Parse(text string) []Section {
	return defaultPipeline.Parse(text)
}

// Parse returns the sections of the first strategy yielding any, or a single
// "Inventory Report" section.
func (p *Pipeline) Parse(text string) []Section {
	for _, s := range p.strategies {
		if sections := runStrategy(s, text); len(sections) > 0 {
			return sections
		}
	}
	return []Section{{Name: NameInventoryReport, Details: Sanitize(text)}}
}

// runStrategy calls the strategy and turns a panic into an empty result.
func runStrategy(s Strategy, text string) (sections []Section) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Report extraction failed",
				"strategy", s.Name,
				"input_size", len(text),
				"error", fmt.Sprint(r),
			)
			sections = nil
		}
	}()
	return s.Extract(text)
}
