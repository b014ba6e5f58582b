package audit

import (
	"context"
	"strings"
)

// Filter selects records for the query engine. Zero-valued fields are ignored;
// all set fields must match (AND). The *Like fields are case-insensitive substrings.
type Filter struct {
	TargetType string
	TargetID   *int64

	// ModuleType is an exact match, ModuleLike a substring match.
	ModuleType string
	ModuleLike string

	TitleLike   string
	MessageLike string

	// Keyword matches message OR activity title.
	Keyword string

	// Ascending orders oldest first; the default is newest first.
	Ascending bool
	Limit     int
}

// ListParams pages through the full log, newest first.
type ListParams struct {
	Limit int
	// BeforeID is an exclusive cursor; zero starts from the newest record.
	BeforeID int64
}

// Reader is the read-side persistence contract used by Engine.
type Reader interface {
	Find(ctx context.Context, f Filter) ([]Record, error)
	List(ctx context.Context, p ListParams) ([]Record, error)
}

// Matches evaluates f against r in memory, mirroring the SQL built by PostgresRepo.
func (f Filter) Matches(r Record) bool {
	if f.TargetType != "" && r.TargetType != f.TargetType {
		return false
	}
	if f.TargetID != nil && (r.TargetID == nil || *r.TargetID != *f.TargetID) {
		return false
	}
	if f.ModuleType != "" && r.ModuleType != f.ModuleType {
		return false
	}
	if f.ModuleLike != "" && !containsFold(r.ModuleType, f.ModuleLike) {
		return false
	}
	if f.TitleLike != "" && !containsFold(r.ActivityTitle, f.TitleLike) {
		return false
	}
	if f.MessageLike != "" && !containsFold(r.Message, f.MessageLike) {
		return false
	}
	if f.Keyword != "" && !containsFold(r.Message, f.Keyword) && !containsFold(r.ActivityTitle, f.Keyword) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
