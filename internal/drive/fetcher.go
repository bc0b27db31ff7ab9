// Package drive mirrors new candidate documents from a Google Drive folder
// into the local watch folder. The filesystem watcher then treats them like
// any other drop, so the fetcher never talks to the pipeline directly.
package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/svtalent/candidate-intake/internal/common"
	"github.com/svtalent/candidate-intake/internal/ledger"
)

// errorHold is how long the poll loop waits after a failed cycle before
// trying again, instead of the full poll interval.
const errorHold = time.Minute

var fetchMIMETypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
}

// Config holds the Drive poller configuration.
type Config struct {
	// Credentials is either a path to a service-account JSON file or the
	// JSON document itself. Empty falls back to application default
	// credentials.
	Credentials string
	// Folder is a folder ID or any Drive URL that contains one.
	Folder string
	// DownloadDir is the local watch folder new files are written into.
	DownloadDir string
	// PollInterval between folder listings. Default 5m.
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Minute
	}
	return c
}

// Fetcher polls one Drive folder and downloads files the ledger has not seen.
// Downloaded IDs are recorded immediately after the file lands on disk; the
// content-hash ledger downstream remains the gate that stops reprocessing.
type Fetcher struct {
	cfg      Config
	folderID string
	svc      *drive.Service
	store    ledger.Store
	logger   *slog.Logger
}

func NewFetcher(ctx context.Context, cfg Config, store ledger.Store, logger *slog.Logger) (*Fetcher, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	folderID := FolderIDFromURL(cfg.Folder)
	if folderID == "" {
		return nil, common.NewAppError(common.CodeConfigError, fmt.Sprintf("drive: no folder ID in %q", cfg.Folder), nil)
	}
	if cfg.DownloadDir == "" {
		return nil, common.NewAppError(common.CodeConfigError, "drive: download directory is required", nil)
	}

	opts := []option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}
	if strings.HasPrefix(strings.TrimSpace(cfg.Credentials), "{") {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.Credentials)))
	} else if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfigError, "drive: build service", err)
	}

	logger.Info("drive.init", "folder_id", folderID, "download_dir", cfg.DownloadDir)
	return &Fetcher{cfg: cfg, folderID: folderID, svc: svc, store: store, logger: logger}, nil
}

// FolderIDFromURL accepts a bare folder ID or the common Drive URL shapes
// (.../drive/folders/<id>, .../open?id=<id>) and returns the ID, or "" when
// none can be found.
func FolderIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "/?") {
		return raw
	}
	if _, rest, ok := strings.Cut(raw, "folders/"); ok {
		id, _, _ := strings.Cut(rest, "?")
		id, _, _ = strings.Cut(id, "&")
		id, _, _ = strings.Cut(id, "/")
		return id
	}
	if _, rest, ok := strings.Cut(raw, "id="); ok {
		id, _, _ := strings.Cut(rest, "&")
		id, _, _ = strings.Cut(id, "#")
		return id
	}
	return ""
}

// Run polls until ctx is canceled. A failed cycle is logged and retried
// after a short hold so a flaky network cannot kill the loop.
func (f *Fetcher) Run(ctx context.Context) error {
	f.logger.Info("drive.poll.start", "folder_id", f.folderID, "interval", f.cfg.PollInterval.String())
	for {
		fetched, err := f.FetchNew(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Error("drive.poll.failed", "error", err)
			if err := sleepCtx(ctx, errorHold); err != nil {
				return err
			}
			continue
		}
		if fetched > 0 {
			f.logger.Info("drive.poll.fetched", "count", fetched)
		}
		if err := sleepCtx(ctx, f.cfg.PollInterval); err != nil {
			return err
		}
	}
}

// FetchNew lists the folder once and downloads everything the ledger has not
// seen yet. It returns the number of files written into the download dir.
func (f *Fetcher) FetchNew(ctx context.Context) (int, error) {
	files, err := f.listFolder(ctx)
	if err != nil {
		return 0, err
	}

	fetched := 0
	for _, file := range files {
		seen, err := f.store.HasDriveFile(ctx, file.Id)
		if err != nil {
			// Download anyway: a duplicate download is harmless because the
			// content hash stops it downstream, a skipped file is lost.
			f.logger.Warn("drive.ledger.lookup_failed", "file_id", file.Id, "error", err)
			seen = false
		}
		if seen {
			continue
		}

		dest, err := f.download(ctx, file)
		if err != nil {
			if ctx.Err() != nil {
				return fetched, ctx.Err()
			}
			f.logger.Error("drive.file.download_failed", "file_id", file.Id, "name", file.Name, "error", err)
			continue
		}
		if err := f.store.RecordDriveFile(ctx, file.Id); err != nil {
			f.logger.Warn("drive.ledger.record_failed", "file_id", file.Id, "error", err)
		}
		f.logger.Info("drive.file.fetched", "file_id", file.Id, "name", file.Name, "path", dest)
		fetched++
	}
	return fetched, nil
}

func (f *Fetcher) listFolder(ctx context.Context) ([]*drive.File, error) {
	var mimes []string
	for _, m := range fetchMIMETypes {
		mimes = append(mimes, fmt.Sprintf("mimeType='%s'", m))
	}
	query := fmt.Sprintf("'%s' in parents and trashed=false and (%s)", f.folderID, strings.Join(mimes, " or "))

	var files []*drive.File
	token := ""
	for {
		call := f.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, modifiedTime, size, md5Checksum)").
			OrderBy("modifiedTime desc").
			PageSize(100).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", f.folderID, err)
		}
		files = append(files, list.Files...)
		if list.NextPageToken == "" {
			return files, nil
		}
		token = list.NextPageToken
	}
}

// download writes the file under a temp name first and renames it into place,
// so the watcher never sees a half-written file under its final name.
func (f *Fetcher) download(ctx context.Context, file *drive.File) (string, error) {
	if err := os.MkdirAll(f.cfg.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(f.cfg.DownloadDir, LocalName(file.Name, file.MimeType))

	resp, err := f.svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download %s: %w", file.Id, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(f.cfg.DownloadDir, ".drive-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename into place: %w", err)
	}
	return dest, nil
}

// LocalName strips characters that are unsafe in a filename and forces the
// extension implied by the Drive MIME type.
func LocalName(name, mimeType string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	clean := strings.TrimSpace(b.String())
	stem := strings.TrimSuffix(clean, filepath.Ext(clean))
	// A dot-leading stem would land as a hidden file the watcher ignores.
	stem = strings.Trim(stem, ". ")
	if stem == "" {
		stem = "document"
	}
	return stem + extForMIME(mimeType, clean)
}

func extForMIME(mimeType, name string) string {
	switch mimeType {
	case "application/pdf":
		return ".pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "application/msword":
		return ".doc"
	}
	if ext := filepath.Ext(name); ext != "" {
		return ext
	}
	return ".pdf"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
