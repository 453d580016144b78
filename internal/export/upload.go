package export

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/errs"
	"github.com/koustreak/querykit/internal/filestore"
	"github.com/koustreak/querykit/internal/logger"
)

// ContentTypeCSV is stored with every uploaded export.
const ContentTypeCSV = "text/csv"

// Upload renders res as CSV and stores it at key inside bucket.
// The logger is taken from ctx.
func Upload(ctx context.Context, store filestore.Store, bucket, key string, res *database.Result, opts CSVOptions) (*filestore.ObjectInfo, error) {
	if store == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "no object store configured")
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, res, opts); err != nil {
		return nil, err
	}

	info, err := store.PutObject(ctx, bucket, key, &buf, int64(buf.Len()), filestore.PutOptions{
		ContentType: ContentTypeCSV,
		Metadata: map[string]string{
			"rows":    strconv.Itoa(res.Len()),
			"columns": strconv.Itoa(len(res.Columns())),
		},
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).InfoWith("result uploaded", map[string]interface{}{
		"bucket": bucket,
		"key":    key,
		"rows":   res.Len(),
		"bytes":  info.Size,
	})
	return info, nil
}

// Share returns a download link for an uploaded export that stays valid for
// ttl. The object must exist.
func Share(ctx context.Context, store filestore.Store, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errs.New(errs.ErrKindInvalidInput, "link lifetime must be positive")
	}
	if _, err := store.StatObject(ctx, bucket, key); err != nil {
		return "", err
	}
	return store.PresignGetURL(ctx, bucket, key, ttl)
}
