package command

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/errs"
	"github.com/koustreak/querykit/internal/export"
	"github.com/koustreak/querykit/internal/filestore/minio"
	"github.com/koustreak/querykit/internal/logger"
)

// outputFlags control where a result goes.
type outputFlags struct {
	out       string
	upload    string
	delimiter string
	encoding  string
	index     bool
	noHeader  bool
	presign   time.Duration
}

const outputHelp = `
Output Options:

  -out=<path>            Write CSV to this file instead of stdout.
  -upload=<bucket/key>   Also upload the CSV to the configured object store.
                         A key without a bucket uses store.bucket.
  -delimiter=<char>      Field delimiter. Default: ",".
  -encoding=<name>       Output character set, e.g. windows-1252 or
                         utf-8-sig. Default: utf-8.
  -index                 Prepend a row-number column.
  -no-header             Omit the header row.
  -presign=<duration>    After -upload, print a download link valid for
                         this long (e.g. 24h).
`

func (o *outputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&o.out, "out", "", "")
	fs.StringVar(&o.upload, "upload", "", "")
	fs.StringVar(&o.delimiter, "delimiter", ",", "")
	fs.StringVar(&o.encoding, "encoding", "", "")
	fs.BoolVar(&o.index, "index", false, "")
	fs.BoolVar(&o.noHeader, "no-header", false, "")
	fs.DurationVar(&o.presign, "presign", 0, "")
}

func (o *outputFlags) csvOptions() (export.CSVOptions, error) {
	if utf8.RuneCountInString(o.delimiter) != 1 {
		return export.CSVOptions{}, errs.New(errs.ErrKindInvalidInput, "delimiter must be a single character")
	}
	r, _ := utf8.DecodeRuneInString(o.delimiter)
	return export.CSVOptions{Delimiter: r, IncludeIndex: o.index, NoHeader: o.noHeader, Encoding: o.encoding}, nil
}

// emit writes res to stdout or -out and uploads it when -upload is set.
func (m *Meta) emit(ctx context.Context, rt *runtime, o *outputFlags, res *database.Result) error {
	opts, err := o.csvOptions()
	if err != nil {
		return err
	}

	if o.out != "" {
		if err := export.SaveCSV(o.out, res, opts); err != nil {
			return err
		}
		m.Ui.Info(fmt.Sprintf("Wrote %d rows to %s", res.Len(), o.out))
	} else if err := export.WriteCSV(m.Stdout, res, opts); err != nil {
		return err
	}

	if o.upload == "" {
		return nil
	}
	if !rt.cfg.Store.Enabled() {
		return errs.New(errs.ErrKindInvalidInput, "-upload needs a store section in the config")
	}

	fc := rt.cfg.Store.Filestore()
	bucket, key := splitUpload(o.upload)
	bucket, err = fc.Bucket(bucket)
	if err != nil {
		return err
	}

	store, err := minio.New(ctx, fc)
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := export.Upload(rt.log.WithContext(ctx), store, bucket, key, res, opts)
	if err != nil {
		return err
	}
	m.Ui.Info(fmt.Sprintf("Uploaded %d bytes to %s/%s", info.Size, bucket, key))

	if o.presign > 0 {
		url, err := export.Share(ctx, store, bucket, key, o.presign)
		if err != nil {
			return err
		}
		m.Ui.Output(url)
	}
	return nil
}

func splitUpload(v string) (bucket, key string) {
	if b, k, ok := strings.Cut(v, "/"); ok {
		return b, k
	}
	return "", v
}

// closeManager closes mgr and logs a failure; the command's own error wins.
func closeManager(ctx context.Context, rt *runtime) {
	if err := rt.mgr.Close(ctx); err != nil {
		logger.OrNop(rt.log).ErrorWith("closing connection failed", err, nil)
	}
}
