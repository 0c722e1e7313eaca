// internal/report/service.go
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resdex/pkg/storage"
)

const resourceCollection = "resources"

// ErrBadPayload marks client-side payload problems so the handler can answer
// 400 instead of 500.
var ErrBadPayload = errors.New("invalid report payload")

// Resource is one observed resource in a report payload.
type Resource struct {
	Type        string         `json:"type"`
	ID          string         `json:"id"`
	FirstSeenAt time.Time      `json:"first_seen_at"`
	LastSeenAt  time.Time      `json:"last_seen_at"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Report is the agent-submitted payload.
type Report struct {
	Resources []Resource `json:"resources"`
}

func (r Resource) docID() string { return r.Type + ":" + r.ID }

func (r Resource) validate() error {
	if r.Type == "" || r.ID == "" {
		return errors.New("resource type and id are required")
	}
	if r.LastSeenAt.Before(r.FirstSeenAt) {
		return errors.New("resource last_seen_at precedes first_seen_at")
	}
	return nil
}

// Ingest upserts every resource in the report into the account's data store.
// Re-observing a resource keeps the earliest first_seen_at and advances
// last_seen_at.
func Ingest(ctx context.Context, conn storage.Conn, rep Report) (int, error) {
	for i, res := range rep.Resources {
		if err := res.validate(); err != nil {
			return 0, fmt.Errorf("resource %d: %v: %w", i, err, ErrBadPayload)
		}
	}
	for _, res := range rep.Resources {
		var prev Resource
		err := conn.Get(ctx, resourceCollection, res.docID(), &prev)
		switch {
		case err == nil:
			if prev.FirstSeenAt.Before(res.FirstSeenAt) {
				res.FirstSeenAt = prev.FirstSeenAt
			}
			if prev.LastSeenAt.After(res.LastSeenAt) {
				res.LastSeenAt = prev.LastSeenAt
			}
		case errors.Is(err, storage.ErrNoDocument):
			// first observation
		default:
			return 0, err
		}
		if err := conn.Put(ctx, resourceCollection, res.docID(), res); err != nil {
			return 0, err
		}
	}
	return len(rep.Resources), nil
}

// List returns every resource recorded for the account behind conn.
func List(ctx context.Context, conn storage.Conn) ([]Resource, error) {
	var out []Resource
	if err := conn.List(ctx, resourceCollection, &out); err != nil {
		return nil, err
	}
	return out, nil
}
