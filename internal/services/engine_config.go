package services

import (
	"time"

	"github.com/yungbote/contentstream-backend/internal/data/repos"
)

// EngineConfig tunes the selection and mutation engines.
type EngineConfig struct {
	// CandidateMultiplier sizes the first candidate window as count * multiplier.
	CandidateMultiplier int
	// MaxWidenAttempts bounds how many candidate windows one selection may fetch.
	MaxWidenAttempts int
	// MaxCandidatePool caps the number of candidates inspected per selection.
	MaxCandidatePool int
	// RecentWindowFactor sizes the newest-items window for the recent policy.
	RecentWindowFactor int
	MaxSelectCount     int
	DefaultPolicy      repos.Policy

	MutationRetryMaxElapsed time.Duration
	MutationRetryInitial    time.Duration
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CandidateMultiplier:     3,
		MaxWidenAttempts:        4,
		MaxCandidatePool:        5000,
		RecentWindowFactor:      10,
		MaxSelectCount:          100,
		DefaultPolicy:           repos.PolicyRandom,
		MutationRetryMaxElapsed: 5 * time.Second,
		MutationRetryInitial:    50 * time.Millisecond,
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = d.CandidateMultiplier
	}
	if c.MaxWidenAttempts <= 0 {
		c.MaxWidenAttempts = d.MaxWidenAttempts
	}
	if c.MaxCandidatePool <= 0 {
		c.MaxCandidatePool = d.MaxCandidatePool
	}
	if c.RecentWindowFactor <= 0 {
		c.RecentWindowFactor = d.RecentWindowFactor
	}
	if c.MaxSelectCount <= 0 {
		c.MaxSelectCount = d.MaxSelectCount
	}
	c.DefaultPolicy = repos.ParsePolicy(string(c.DefaultPolicy), d.DefaultPolicy)
	if c.MutationRetryMaxElapsed <= 0 {
		c.MutationRetryMaxElapsed = d.MutationRetryMaxElapsed
	}
	if c.MutationRetryInitial <= 0 {
		c.MutationRetryInitial = d.MutationRetryInitial
	}
	return c
}
