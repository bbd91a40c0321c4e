package tagger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moepig/nexpose-kit/nexpose"
)

// API is the part of the Nexpose client the tagger needs
type API interface {
	SetAssetTag(ctx context.Context, assetID, tagID int64) (nexpose.Ack, error)
	ClearAssetTag(ctx context.Context, assetID, tagID int64) (nexpose.Ack, error)
}

// Operation selects between attaching and removing a tag
type Operation int

const (
	Tag Operation = iota
	Untag
)

func (o Operation) String() string {
	if o == Untag {
		return "untag"
	}
	return "tag"
}

// Summary is the heading of the outcome log for this operation
func (o Operation) Summary() string {
	if o == Untag {
		return "Assets Untagged Summary"
	}
	return "Assets Tagged Summary"
}

// Outcome is the result of one asset
type Outcome struct {
	AssetID int64
	Ack     nexpose.Ack
	Err     error
}

// Success reports whether the call for this asset succeeded
func (o Outcome) Success() bool {
	return o.Err == nil
}

// Result is the outcome of a whole batch
type Result struct {
	RunID      string
	Operation  Operation
	TagID      int64
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

// Successes returns the outcomes that succeeded
func (r Result) Successes() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Success() {
			out = append(out, o)
		}
	}
	return out
}

// Failures returns the outcomes that failed
func (r Result) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Success() {
			out = append(out, o)
		}
	}
	return out
}

// LogLines returns one human-readable line per asset, in batch order
func (r Result) LogLines() []string {
	lines := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		lines = append(lines, r.line(o))
	}
	return lines
}

func (r Result) line(o Outcome) string {
	switch {
	case r.Operation == Tag && o.Success():
		return fmt.Sprintf("Asset ID %d successfully tagged with tag %d", o.AssetID, r.TagID)
	case r.Operation == Tag:
		return fmt.Sprintf("Asset ID %d failed to be tagged with tag %d: %v", o.AssetID, r.TagID, o.Err)
	case o.Success():
		return fmt.Sprintf("Tag %d successfully removed from asset %d", r.TagID, o.AssetID)
	default:
		return fmt.Sprintf("Tag %d failed to be removed from asset %d: %v", r.TagID, o.AssetID, o.Err)
	}
}

// Tagger applies one tag operation to a list of assets
type Tagger struct {
	api   API
	now   func() time.Time
	newID func() string
}

// New creates a Tagger
func New(api API) *Tagger {
	return &Tagger{
		api:   api,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run applies op to every asset in order. A failing asset is recorded and the
// batch moves on; once ctx is done the remaining assets fail without a call
func (t *Tagger) Run(ctx context.Context, op Operation, tagID int64, assetIDs []int64) Result {
	result := Result{
		RunID:     t.newID(),
		Operation: op,
		TagID:     tagID,
		StartedAt: t.now(),
		Outcomes:  make([]Outcome, 0, len(assetIDs)),
	}

	slog.Info("Starting tag batch",
		"run_id", result.RunID,
		"operation", op.String(),
		"tag_id", tagID,
		"assets", len(assetIDs))

	for _, assetID := range assetIDs {
		outcome := Outcome{AssetID: assetID}
		if err := ctx.Err(); err != nil {
			outcome.Err = err
		} else if op == Untag {
			outcome.Ack, outcome.Err = t.api.ClearAssetTag(ctx, assetID, tagID)
		} else {
			outcome.Ack, outcome.Err = t.api.SetAssetTag(ctx, assetID, tagID)
		}

		if outcome.Err != nil {
			slog.Error("Tag operation failed",
				"run_id", result.RunID,
				"operation", op.String(),
				"asset_id", assetID,
				"tag_id", tagID,
				"error", outcome.Err)
		} else {
			slog.Debug("Tag operation succeeded",
				"run_id", result.RunID,
				"operation", op.String(),
				"asset_id", assetID,
				"tag_id", tagID,
				"status", outcome.Ack.StatusCode)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.FinishedAt = t.now()
	slog.Info("Finished tag batch",
		"run_id", result.RunID,
		"succeeded", len(result.Successes()),
		"failed", len(result.Failures()))
	return result
}

// ParseAssetIDs converts the lines of an asset ID list file. Blank lines are
// skipped; any other non-numeric line is an error naming it
func ParseAssetIDs(lines []string) ([]int64, error) {
	ids := make([]int64, 0, len(lines))
	var invalid []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil || id <= 0 {
			invalid = append(invalid, line)
			continue
		}
		ids = append(ids, id)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid asset IDs: %s", strings.Join(invalid, ", "))
	}
	return ids, nil
}
