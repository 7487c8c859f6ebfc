// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package operations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// strategy is the per-operation slice of the engine: where files come
// from, where they go, and how one file moves. The surrounding phase
// sequence is fixed and shared; strategies cannot reorder it.
type strategy interface {
	// discoverSource/discoverTarget return direction-specific state that
	// only buildPlan of the same strategy interprets.
	discoverSource(ctx context.Context, job Job) (any, error)
	discoverTarget(ctx context.Context, job Job) (any, error)

	buildPlan(job Job, source, target any) (*TransferPlan, error)
	transferItem(ctx context.Context, item TransferItem) error
}

// run drives every operation through the same six phases: validate,
// discover source, discover target, plan, execute, cleanup.
func (s *Service) run(ctx context.Context, job Job, st strategy) (*TransferResult, error) {
	started := time.Now()

	// 1. validate
	policy, err := ParsePolicy(string(job.Policy))
	if err != nil {
		return nil, err
	}
	job.Policy = policy

	kind := kindOf(job.Operation)
	release := s.locks.acquire(job.Coordinate.Path() + "#" + string(kind))
	defer release()

	log := s.logger.With(
		zap.String("operation", string(job.Operation)),
		zap.Stringer("coordinate", job.Coordinate),
		zap.Bool("dryRun", job.DryRun))

	// 2. + 3. discovery
	source, err := st.discoverSource(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("%w: source: %v", ErrDiscoveryFailed, err)
	}
	target, err := st.discoverTarget(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("%w: target: %v", ErrDiscoveryFailed, err)
	}

	// 4. plan
	plan, err := st.buildPlan(job, source, target)
	if err != nil {
		return nil, err
	}

	result := &TransferResult{
		OperationID: uuid.NewString(),
		Operation:   job.Operation,
		Coordinate:  job.Coordinate,
		DryRun:      job.DryRun,
		Planned:     len(plan.Items),
		InSync:      plan.InSync,
		Conflicts:   plan.Conflicts,
	}

	log.Info("transfer planned",
		zap.String("operationId", result.OperationID),
		zap.Int("items", len(plan.Items)),
		zap.Int("conflicts", len(plan.Conflicts)),
		zap.Int("inSync", plan.InSync),
		zap.Int64("totalBytes", plan.TotalBytes))

	// 5. execute
	if job.DryRun {
		for _, item := range plan.Items {
			result.Items = append(result.Items, ItemResult{Item: item})
		}
	} else if len(plan.Items) > 0 {
		result.Items = s.execute(ctx, st, plan.Items)
	}

	// 6. cleanup
	for _, ir := range result.Items {
		if job.DryRun {
			continue
		}
		switch {
		case ir.Cancelled:
			result.Cancelled++
		case ir.Error != "":
			result.Failed++
		default:
			result.Transferred++
			result.Bytes += ir.Item.Size
		}
	}
	result.Took = time.Since(started)

	if result.Transferred > 0 {
		// any successful movement invalidates the remote inventory view,
		// downloads included (a crashed upload may have landed partially)
		s.cache.MarkStale(fmt.Sprintf("%s moved %d unit(s) at %s",
			job.Operation, result.Transferred, job.Coordinate))
	}

	log.Info("transfer finished",
		zap.String("operationId", result.OperationID),
		zap.Int("transferred", result.Transferred),
		zap.Int("failed", result.Failed),
		zap.Int("cancelled", result.Cancelled),
		zap.Int64("bytes", result.Bytes),
		zap.Duration("took", result.Took))
	return result, nil
}

// execute moves the planned items with a bounded worker pool. One item
// failing never cancels its siblings; failures are reported per item.
func (s *Service) execute(ctx context.Context, st strategy, items []TransferItem) []ItemResult {
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]ItemResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			// a cancelled run leaves the remaining items untouched; they
			// are recorded as cancelled, not as transfer failures
			if gctx.Err() != nil {
				results[i] = ItemResult{Item: item, Cancelled: true}
				return nil
			}
			t0 := time.Now()
			err := st.transferItem(gctx, item)
			results[i] = ItemResult{Item: item, Took: time.Since(t0)}
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				results[i].Cancelled = true
			default:
				results[i].Error = err.Error()
				s.logger.Warn("item transfer failed",
					zap.String("name", item.Name), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

/* -------------------- shared item movers -------------------- */

// downloadItem streams one object to disk and verifies the on-disk size.
// A partial file is removed so a retry starts clean.
func (s *Service) downloadItem(ctx context.Context, item TransferItem) error {
	if err := os.MkdirAll(filepath.Dir(item.LocalPath), 0o755); err != nil {
		return fmt.Errorf("prepare target dir: %w", err)
	}
	if err := s.store.DownloadFile(ctx, item.Bucket, item.RemoteKey, item.LocalPath, s.progress); err != nil {
		_ = os.Remove(item.LocalPath)
		return err
	}
	info, err := os.Stat(item.LocalPath)
	if err != nil {
		return fmt.Errorf("verify download: %w", err)
	}
	if item.Size > 0 && info.Size() != item.Size {
		_ = os.Remove(item.LocalPath)
		return fmt.Errorf("size mismatch after download: got %d, want %d", info.Size(), item.Size)
	}
	return nil
}

// uploadItem pushes one file and verifies the stored size with a HEAD.
func (s *Service) uploadItem(ctx context.Context, item TransferItem) error {
	if err := s.store.UploadPath(ctx, item.Bucket, item.RemoteKey, item.LocalPath, s.progress); err != nil {
		return err
	}
	stored, err := s.store.HeadSize(ctx, item.Bucket, item.RemoteKey)
	if err != nil {
		return fmt.Errorf("verify upload: %w", err)
	}
	if item.Size > 0 && stored != item.Size {
		return fmt.Errorf("size mismatch after upload: got %d, want %d", stored, item.Size)
	}
	return nil
}
