// Package sentiment simulates AI sentiment analysis of feedback
// messages with a fixed delay and a configurable failure rate.
package sentiment

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// ErrUnavailable signals a simulated analysis outage.
var ErrUnavailable = errors.New("ai analysis unavailable")

type Result struct {
	Sentiment string
	Score     float64
	Tags      []string
}

type Config struct {
	Delay       time.Duration
	FailureRate float64
	// Keyword lists checked against the lowercased message.
	// Negative hints win over positive ones.
	NegativeHints []string
	PositiveHints []string
	NegativeTags  []string
	PositiveTags  []string
	NeutralTags   []string
}

func DefaultConfig() Config {
	return Config{
		Delay:         500 * time.Millisecond,
		FailureRate:   0.2,
		NegativeHints: []string{"обеспокоен", "проблем", "риск", "сокращен", "против", "сопротивл", "не работает", "боятся"},
		PositiveHints: []string{"предлагаю", "отлично", "понятнее", "нравится", "спасибо", "удобн", "интереснее"},
		NegativeTags:  []string{"сопротивление", "коммуникация", "персонал"},
		PositiveTags:  []string{"предложение", "улучшение", "вовлеченность"},
		NeutralTags:   []string{"уточнение", "планирование"},
	}
}

type Analyzer struct {
	cfg  Config
	rand func() float64
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg, rand: rand.Float64}
}

// NewAnalyzerWithRand injects the randomness source, used by tests to
// force either the failure or the success branch.
func NewAnalyzerWithRand(cfg Config, randFn func() float64) *Analyzer {
	return &Analyzer{cfg: cfg, rand: randFn}
}

// Analyze classifies a message after the configured delay. It returns
// ErrUnavailable on a simulated outage and the context error if the
// caller gives up during the delay.
func (a *Analyzer) Analyze(ctx context.Context, message string) (Result, error) {
	if a.cfg.Delay > 0 {
		timer := time.NewTimer(a.cfg.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	if a.rand() < a.cfg.FailureRate {
		return Result{}, ErrUnavailable
	}

	lower := strings.ToLower(message)
	if containsAny(lower, a.cfg.NegativeHints) {
		return Result{Sentiment: "negative", Score: 0.82, Tags: a.cfg.NegativeTags}, nil
	}
	if containsAny(lower, a.cfg.PositiveHints) {
		return Result{Sentiment: "positive", Score: 0.76, Tags: a.cfg.PositiveTags}, nil
	}
	return Result{Sentiment: "neutral", Score: 0.53, Tags: a.cfg.NeutralTags}, nil
}

func containsAny(s string, hints []string) bool {
	for _, hint := range hints {
		if hint != "" && strings.Contains(s, hint) {
			return true
		}
	}
	return false
}
