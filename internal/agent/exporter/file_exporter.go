// internal/agent/exporter/file_exporter.go
// File exporter writes each encoded trace snapshot to a directory on the
// local filesystem.  The filename pattern follows
//
//	<prefix>-20060102T150405.000.<ext>[.gz]
//
// where the timestamp is UTC by default and ext is derived from the
// snapshot's content type (ndjson encodes to .json, the binary container
// encodes to .bin). Compression can be toggled; this exporter is primarily
// for offline analysis and debugging when a gateway is unavailable.
package exporter

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// extForContentType maps an encoder content type to a filename extension.
func extForContentType(contentType string) string {
    switch contentType {
    case "application/vnd.tracepath.container":
        return "bin"
    default:
        return "json"
    }
}

// FileConfig controls exporter behaviour.
type FileConfig struct {
    Dir        string        // destination directory (created if missing)
    Prefix     string        // filename prefix (default "flare")
    Compress   bool          // gzip output
    Timezone   *time.Location // nil => UTC
    FlushSync  bool          // fsync file after write
    Perm       os.FileMode   // file mode (default 0644)
}

// fileExporter implements agent.Exporter.
type fileExporter struct {
    cfg FileConfig
}

// NewFileExporter validates config and returns exporter.
func NewFileExporter(cfg FileConfig) (*fileExporter, error) {
    if cfg.Dir == "" {
        cfg.Dir = "."
    }
    if cfg.Prefix == "" {
        cfg.Prefix = "flare"
    }
    if cfg.Perm == 0 {
        cfg.Perm = 0o644
    }
    if cfg.Timezone == nil {
        cfg.Timezone = time.UTC
    }
    if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
        return nil, err
    }
    return &fileExporter{cfg: cfg}, nil
}

// Export writes snapshot to file; blocks until write completes.
func (e *fileExporter) Export(_ context.Context, data []byte, contentType string) error {
    if len(data) == 0 {
        return nil
    }
    ts := time.Now().In(e.cfg.Timezone).Format("20060102T150405.000")
    fname := fmt.Sprintf("%s-%s.%s", e.cfg.Prefix, ts, extForContentType(contentType))
    if e.cfg.Compress {
        fname += ".gz"
    }
    path := filepath.Join(e.cfg.Dir, fname)

    f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, e.cfg.Perm)
    if err != nil {
        return err
    }
    defer f.Close()

    if e.cfg.Compress {
        gw := gzip.NewWriter(f)
        if _, err := gw.Write(data); err != nil {
            _ = gw.Close()
            return err
        }
        if err := gw.Close(); err != nil {
            return err
        }
    } else {
        if _, err := f.Write(data); err != nil {
            return err
        }
    }
    if e.cfg.FlushSync {
        _ = f.Sync()
    }
    return nil
}

// Close is a no-op.
func (e *fileExporter) Close() error { return nil }
