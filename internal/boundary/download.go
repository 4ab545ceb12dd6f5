package boundary

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/retry"
)

// downloadRetry governs retries of transient archive download failures.
var downloadRetry = retry.DefaultPolicy

// Download fetches a TIGER/Line ZCTA ZIP archive into destDir, extracts it
// and returns the path of the extracted .shp file. An archive already present
// in destDir is reused.
func Download(ctx context.Context, url, destDir string) (string, error) {
	log := zap.L().With(
		zap.String("component", "boundary.download"),
		zap.String("url", url),
	)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "boundary: create dest dir")
	}

	zipName := filepath.Base(strings.TrimRight(url, "/"))
	if !strings.HasSuffix(strings.ToLower(zipName), ".zip") {
		return "", eris.Errorf("boundary: %s does not name a zip archive", url)
	}
	zipPath := filepath.Join(destDir, zipName)

	if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
		log.Debug("archive already present, skipping download", zap.String("path", zipPath))
	} else {
		log.Info("downloading boundary archive")
		err := retry.Do(ctx, downloadRetry, "boundary.download", func(ctx context.Context) error {
			return fetchFile(ctx, url, zipPath)
		})
		if err != nil {
			return "", eris.Wrap(err, "boundary: download archive")
		}
	}

	extracted, err := unzip(zipPath, destDir)
	if err != nil {
		return "", eris.Wrap(err, "boundary: extract archive")
	}

	shpPath, err := findByExt(destDir, ".shp")
	if err != nil {
		return "", eris.Wrap(err, "boundary: locate shapefile")
	}

	log.Info("boundary archive ready",
		zap.String("shapefile", shpPath),
		zap.Int("files", extracted),
	)
	return shpPath, nil
}

// fetchFile streams url into dest through a temporary file so an interrupted
// transfer never leaves a partial archive under the final name.
func fetchFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return &retry.StatusError{Code: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return eris.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "write archive")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "close archive")
	}
	return eris.Wrap(os.Rename(tmp.Name(), dest), "rename archive")
}

// unzip extracts the regular files of an archive flat into destDir and
// returns how many were written. Entry paths are reduced to their base name.
func unzip(zipPath, destDir string) (int, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	var n int
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractEntry(f, filepath.Join(destDir, filepath.Base(f.Name))); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func extractEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "create %s", dest)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "extract %s", f.Name)
	}
	return eris.Wrapf(out.Close(), "close %s", dest)
}

// findByExt returns the first file in dir with the given extension.
func findByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file in %s", ext, dir)
}
