package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"dental-clinic/pkg/logger"
)

// Repository is the write-side persistence contract for audit records.
//
// It MUST be append-only. Append assigns ID and returns the stored record.
// There are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, r Record) (Record, error)
}

// publishTimeout bounds a single background publish.
const publishTimeout = 10 * time.Second

// Publisher mirrors appended records onto a stream (see pkg/queue).
type Publisher interface {
	PublishMessage(ctx context.Context, key, value []byte) error
}

// Service is the audit writer.
//
// Callers record after their domain mutation has committed and should treat
// audit as best-effort (see LogBestEffort).
type Service struct {
	repo      Repository
	publisher Publisher
	clock     func() time.Time

	inflight sync.WaitGroup
}

// NewService returns a writer. publisher may be nil.
func NewService(repo Repository, publisher Publisher) *Service {
	return &Service{repo: repo, publisher: publisher, clock: time.Now}
}

var (
	ErrInvalidRecord           = errors.New("audit: invalid record")
	ErrRepositoryNotConfigured = errors.New("audit: repository not configured")
)

// Record appends exactly one record for e.
// IP address and user agent are taken from the request metadata on ctx.
func (s *Service) Record(ctx context.Context, e Entry) (Record, error) {
	if s.repo == nil {
		return Record{}, ErrRepositoryNotConfigured
	}
	if strings.TrimSpace(e.ActivityTitle) == "" || strings.TrimSpace(e.ModuleType) == "" || strings.TrimSpace(e.TargetType) == "" {
		return Record{}, ErrInvalidRecord
	}

	meta := RequestMetaFromContext(ctx)
	r := Record{
		AdminID:       e.AdminID,
		ActivityTitle: strings.TrimSpace(e.ActivityTitle),
		ModuleType:    strings.TrimSpace(e.ModuleType),
		Message:       e.Message,
		TargetType:    strings.TrimSpace(e.TargetType),
		TargetID:      e.TargetID,
		OldValue:      e.OldValue,
		NewValue:      e.NewValue,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		CreatedAt:     s.clock().UTC(),
	}

	stored, err := s.repo.Append(ctx, r)
	if err != nil {
		return Record{}, err
	}

	if s.publisher != nil {
		s.publishAsync(ctx, stored)
	}
	return stored, nil
}

// Wait blocks until background publishes have finished. Call it on shutdown
// before closing the publisher.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.inflight.Wait()
}

// LogBestEffort records e and swallows any failure after logging it.
// A failed audit write must never fail the mutation it documents.
func (s *Service) LogBestEffort(ctx context.Context, e Entry) {
	if s == nil {
		return
	}
	if _, err := s.Record(ctx, e); err != nil {
		logger.From(ctx).Error("audit record failed",
			"activity", e.ActivityTitle,
			"target_type", e.TargetType,
			"err", err,
		)
	}
}

// publishAsync streams r off the request path. The request context only
// contributes its values (logger, request id); cancellation does not carry over.
func (s *Service) publishAsync(ctx context.Context, r Record) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := s.publish(ctx, r); err != nil {
			logger.From(ctx).Warn("audit publish failed", "audit_id", r.ID, "err", err)
		}
	}()
}

func (s *Service) publish(ctx context.Context, r Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.publisher.PublishMessage(ctx, []byte(strconv.FormatInt(r.ID, 10)), value)
}
