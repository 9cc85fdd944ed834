package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// DatasetArchive keeps timestamped copies of imported catalog datasets under one prefix.
type DatasetArchive struct {
	svc    Service
	bucket string
	prefix string
	keep   int
}

// Archive is one stored dataset copy.
type Archive struct {
	Key          string
	Size         int64
	LastModified *time.Time
	URL          string
}

// NewDatasetArchive returns nil when no bucket is configured so callers can treat archiving
// as disabled.
func NewDatasetArchive(svc Service, bucket, prefix string, keep int) *DatasetArchive {
	if svc == nil || bucket == "" {
		return nil
	}
	return &DatasetArchive{
		svc:    svc,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		keep:   keep,
	}
}

// Store uploads data as <prefix>/<source>-<unix>.json and prunes the oldest copies beyond
// the retention count.
func (a *DatasetArchive) Store(ctx context.Context, source string, data []byte, at time.Time) (string, error) {
	key := path.Join(a.prefix, fmt.Sprintf("%s-%d.json", source, at.UTC().Unix()))
	loc, err := a.svc.PutObject(ctx, bytes.NewReader(data), PutOptions{
		Bucket:      a.bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	if a.keep > 0 {
		if err := a.prune(ctx); err != nil {
			return loc, fmt.Errorf("prune archives: %w", err)
		}
	}
	return loc, nil
}

// List returns archives newest first, each with a presigned download URL.
func (a *DatasetArchive) List(ctx context.Context, urlTTL time.Duration) ([]Archive, error) {
	objects, err := a.objects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Archive, 0, len(objects))
	for _, obj := range objects {
		url, err := a.svc.GetObjectURL(ctx, a.bucket, obj.Key, urlTTL)
		if err != nil {
			return nil, err
		}
		out = append(out, Archive{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified, URL: url})
	}
	return out, nil
}

func (a *DatasetArchive) objects(ctx context.Context) ([]ObjectInfo, error) {
	prefix := a.prefix
	if prefix != "" {
		prefix += "/"
	}
	objects, err := a.svc.ListObjects(ctx, a.bucket, prefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(objects, func(i, j int) bool {
		return modTime(objects[i]).After(modTime(objects[j]))
	})
	return objects, nil
}

func (a *DatasetArchive) prune(ctx context.Context) error {
	objects, err := a.objects(ctx)
	if err != nil {
		return err
	}
	if len(objects) <= a.keep {
		return nil
	}
	stale := make([]string, 0, len(objects)-a.keep)
	for _, obj := range objects[a.keep:] {
		stale = append(stale, obj.Key)
	}
	return a.svc.DeleteObjects(ctx, a.bucket, stale...)
}

func modTime(o ObjectInfo) time.Time {
	if o.LastModified == nil {
		return time.Time{}
	}
	return *o.LastModified
}
