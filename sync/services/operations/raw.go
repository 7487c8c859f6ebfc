// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package operations

import (
	"context"
	"fmt"

	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/state"
)

/* -------------------- raw download -------------------- */

type rawDownload struct {
	svc *Service
}

func (d *rawDownload) discoverSource(ctx context.Context, job Job) (any, error) {
	return d.svc.remoteRawStatus(ctx, job.Coordinate)
}

func (d *rawDownload) discoverTarget(_ context.Context, job Job) (any, error) {
	return d.svc.scanner.RawStatus(job.Coordinate)
}

func (d *rawDownload) buildPlan(job Job, source, target any) (*TransferPlan, error) {
	remote := source.(state.RawStatus)
	local := target.(state.RawStatus)

	bucket, err := d.svc.paths.BucketName(coordinate.KindRaw)
	if err != nil {
		return nil, err
	}

	plan := &TransferPlan{}
	for _, remoteName := range remote.BagNames {
		localName, err := coordinate.RemoteToLocal(coordinate.KindRaw, remoteName)
		if err != nil {
			return nil, fmt.Errorf("remote bag %q: %w", remoteName, err)
		}
		if !job.Selection.wantsBag(localName) {
			continue
		}
		size := remote.BagSizes[remoteName]
		overwrite := false
		if localSize, present := local.BagSizes[localName]; present {
			if localSize == size {
				plan.InSync++
				continue
			}
			plan.Conflicts = append(plan.Conflicts, Conflict{
				Name: localName, LocalSize: localSize, RemoteSize: size,
			})
			if job.Policy != PolicyOverwrite {
				continue
			}
			overwrite = true
		}
		plan.Items = append(plan.Items, TransferItem{
			Name:      localName,
			LocalPath: d.svc.paths.LocalRawBag(job.Coordinate, localName),
			Bucket:    bucket,
			RemoteKey: d.svc.paths.RemoteRawKey(job.Coordinate, remoteName),
			Size:      size,
			Overwrite: overwrite,
		})
		plan.TotalBytes += size
	}
	return plan, nil
}

func (d *rawDownload) transferItem(ctx context.Context, item TransferItem) error {
	return d.svc.downloadItem(ctx, item)
}

/* -------------------- raw upload -------------------- */

type rawUpload struct {
	svc *Service
}

func (u *rawUpload) discoverSource(_ context.Context, job Job) (any, error) {
	return u.svc.scanner.RawStatus(job.Coordinate)
}

func (u *rawUpload) discoverTarget(ctx context.Context, job Job) (any, error) {
	return u.svc.remoteRawStatus(ctx, job.Coordinate)
}

func (u *rawUpload) buildPlan(job Job, source, target any) (*TransferPlan, error) {
	local := source.(state.RawStatus)
	remote := target.(state.RawStatus)

	bucket, err := u.svc.paths.BucketName(coordinate.KindRaw)
	if err != nil {
		return nil, err
	}

	plan := &TransferPlan{}
	for _, localName := range local.BagNames {
		remoteName, err := coordinate.LocalToRemote(coordinate.KindRaw, localName)
		if err != nil {
			return nil, fmt.Errorf("local bag %q: %w", localName, err)
		}
		if !job.Selection.wantsBag(localName) {
			continue
		}
		size := local.BagSizes[localName]
		overwrite := false
		if remoteSize, present := remote.BagSizes[remoteName]; present {
			if remoteSize == size {
				plan.InSync++
				continue
			}
			plan.Conflicts = append(plan.Conflicts, Conflict{
				Name: localName, LocalSize: size, RemoteSize: remoteSize,
			})
			if job.Policy != PolicyOverwrite {
				continue
			}
			overwrite = true
		}
		plan.Items = append(plan.Items, TransferItem{
			Name:      localName,
			LocalPath: u.svc.paths.LocalRawBag(job.Coordinate, localName),
			Bucket:    bucket,
			RemoteKey: u.svc.paths.RemoteRawKey(job.Coordinate, remoteName),
			Size:      size,
			Overwrite: overwrite,
		})
		plan.TotalBytes += size
	}
	return plan, nil
}

func (u *rawUpload) transferItem(ctx context.Context, item TransferItem) error {
	return u.svc.uploadItem(ctx, item)
}
