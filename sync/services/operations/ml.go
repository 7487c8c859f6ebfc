// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package operations

import (
	"context"
	"fmt"
	"sort"

	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/state"
)

/* -------------------- ml download -------------------- */

type mlDownload struct {
	svc *Service
}

func (d *mlDownload) discoverSource(ctx context.Context, job Job) (any, error) {
	return d.svc.remoteMLStatus(ctx, job.Coordinate)
}

func (d *mlDownload) discoverTarget(_ context.Context, job Job) (any, error) {
	return d.svc.scanner.MLStatus(job.Coordinate)
}

func (d *mlDownload) buildPlan(job Job, source, target any) (*TransferPlan, error) {
	remote := source.(state.MLStatus)
	local := target.(state.MLStatus)

	bucket, err := d.svc.paths.BucketName(coordinate.KindML)
	if err != nil {
		return nil, err
	}

	plan := &TransferPlan{}
	for _, remoteBag := range sortedKeys(remote.Bags) {
		localBag, err := coordinate.RemoteToLocal(coordinate.KindML, remoteBag)
		if err != nil {
			return nil, fmt.Errorf("remote bag %q: %w", remoteBag, err)
		}
		if !job.Selection.wantsBag(localBag) {
			continue
		}
		for _, fileType := range coordinate.MLFileTypes {
			if !job.Selection.wantsFileType(fileType) {
				continue
			}
			files := remote.Bags[remoteBag].Files(fileType)
			for _, name := range sortedKeys(files) {
				size := files[name]
				unit := localBag + "/" + fileType + "/" + name

				overwrite := false
				if localSize, present := mlFileSize(local, localBag, fileType, name); present {
					if localSize == size {
						plan.InSync++
						continue
					}
					plan.Conflicts = append(plan.Conflicts, Conflict{
						Name: unit, LocalSize: localSize, RemoteSize: size,
					})
					if job.Policy != PolicyOverwrite {
						continue
					}
					overwrite = true
				}
				plan.Items = append(plan.Items, TransferItem{
					Name:      unit,
					LocalPath: d.svc.paths.LocalMLFile(job.Coordinate, localBag, fileType, name),
					Bucket:    bucket,
					RemoteKey: d.svc.paths.RemoteMLKey(job.Coordinate, remoteBag, fileType, name),
					Size:      size,
					Overwrite: overwrite,
				})
				plan.TotalBytes += size
			}
		}
	}
	return plan, nil
}

func (d *mlDownload) transferItem(ctx context.Context, item TransferItem) error {
	return d.svc.downloadItem(ctx, item)
}

/* -------------------- ml upload -------------------- */

type mlUpload struct {
	svc *Service
}

func (u *mlUpload) discoverSource(_ context.Context, job Job) (any, error) {
	return u.svc.scanner.MLStatus(job.Coordinate)
}

func (u *mlUpload) discoverTarget(ctx context.Context, job Job) (any, error) {
	return u.svc.remoteMLStatus(ctx, job.Coordinate)
}

func (u *mlUpload) buildPlan(job Job, source, target any) (*TransferPlan, error) {
	local := source.(state.MLStatus)
	remote := target.(state.MLStatus)

	bucket, err := u.svc.paths.BucketName(coordinate.KindML)
	if err != nil {
		return nil, err
	}

	plan := &TransferPlan{}
	for _, localBag := range sortedKeys(local.Bags) {
		remoteBag, err := coordinate.LocalToRemote(coordinate.KindML, localBag)
		if err != nil {
			return nil, fmt.Errorf("local bag %q: %w", localBag, err)
		}
		if !job.Selection.wantsBag(localBag) {
			continue
		}
		for _, fileType := range coordinate.MLFileTypes {
			if !job.Selection.wantsFileType(fileType) {
				continue
			}
			files := local.Bags[localBag].Files(fileType)
			for _, name := range sortedKeys(files) {
				size := files[name]
				unit := localBag + "/" + fileType + "/" + name

				overwrite := false
				if remoteSize, present := mlFileSize(remote, remoteBag, fileType, name); present {
					if remoteSize == size {
						plan.InSync++
						continue
					}
					plan.Conflicts = append(plan.Conflicts, Conflict{
						Name: unit, LocalSize: size, RemoteSize: remoteSize,
					})
					if job.Policy != PolicyOverwrite {
						continue
					}
					overwrite = true
				}
				plan.Items = append(plan.Items, TransferItem{
					Name:      unit,
					LocalPath: u.svc.paths.LocalMLFile(job.Coordinate, localBag, fileType, name),
					Bucket:    bucket,
					RemoteKey: u.svc.paths.RemoteMLKey(job.Coordinate, remoteBag, fileType, name),
					Size:      size,
					Overwrite: overwrite,
				})
				plan.TotalBytes += size
			}
		}
	}
	return plan, nil
}

func (u *mlUpload) transferItem(ctx context.Context, item TransferItem) error {
	return u.svc.uploadItem(ctx, item)
}

func mlFileSize(status state.MLStatus, bag, fileType, name string) (int64, bool) {
	bf, ok := status.Bags[bag]
	if !ok {
		return 0, false
	}
	size, ok := bf.Files(fileType)[name]
	return size, ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
