// Package fetch downloads release artifacts and unpacks zip, tar.gz, and
// tar.xz archives into a destination directory.
package fetch

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"embedup/internal/platform/errors"
	"embedup/internal/platform/httpclient"
	"embedup/internal/platform/logx"
)

// Fetcher downloads artifacts over HTTP and extracts them.
type Fetcher struct {
	client *httpclient.Client
	logger logx.Logger
}

// New creates a Fetcher on top of the shared HTTP client.
func New(client *httpclient.Client, logger logx.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger.With("component", "fetch"),
	}
}

// Fetch downloads url into dir under the given file name and returns the
// final path. An existing file with the same name is deleted first so a
// partial previous download is never reused.
func (f *Fetcher) Fetch(ctx context.Context, url, dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		f.logger.Warn("file already exists, deleting before download", "path", path)
		if err := os.Remove(path); err != nil {
			return "", errors.Wrapf(err, "failed to remove stale download %s", path)
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", dir, err)
	}

	resp, err := f.client.Get(ctx, url, nil)
	if err != nil {
		return "", errors.Wrapf(errors.ErrFetch, "%s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", errors.Wrapf(errors.ErrFetch, "%s: HTTP %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", path)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", errors.Wrapf(errors.ErrFetch, "%s: %v", url, err)
	}

	return path, nil
}

// FetchAndExtract downloads url and unpacks it into dest. The archive kind
// is chosen from the url's extension; anything other than .zip, .tar.gz, or
// .tar.xz fails with ErrUnsupportedArchive. stripPrefix, when non-empty,
// drops that leading path component from zip entries (used for bundles whose
// files live under a single top-level directory).
func (f *Fetcher) FetchAndExtract(ctx context.Context, url, dest, stripPrefix string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", dest, err)
	}

	tmpDir, err := os.MkdirTemp("", "embedup-fetch-*")
	if err != nil {
		return errors.Wrap(err, "failed to create download directory")
	}
	defer os.RemoveAll(tmpDir)

	name := filepath.Base(url)
	path, err := f.Fetch(ctx, url, tmpDir, name)
	if err != nil {
		return err
	}

	f.logger.Debug("extracting archive", "file", name, "dest", dest)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return extractZip(path, dest, stripPrefix)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		file, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", path)
		}
		defer file.Close()
		gz, err := gzip.NewReader(file)
		if err != nil {
			return errors.Wrapf(err, "failed to read gzip stream from %s", name)
		}
		defer gz.Close()
		return extractTar(gz, dest)
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		file, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", path)
		}
		defer file.Close()
		xzr, err := xz.NewReader(file)
		if err != nil {
			return errors.Wrapf(err, "failed to read xz stream from %s", name)
		}
		return extractTar(xzr, dest)
	default:
		return errors.Wrapf(errors.ErrUnsupportedArchive, "%s", name)
	}
}

// extractZip extracts a zip file to a destination directory.
func extractZip(zipPath, destDir, stripPrefix string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrapf(err, "failed to open zip %s", zipPath)
	}
	defer reader.Close()

	for _, file := range reader.File {
		entryName := file.Name
		if stripPrefix != "" {
			if !strings.HasPrefix(entryName, stripPrefix) {
				continue
			}
			entryName = strings.TrimPrefix(entryName, stripPrefix)
			if entryName == "" {
				continue
			}
		}

		path := filepath.Join(destDir, entryName)
		if !strings.HasPrefix(path, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return errors.Errorf("zip entry %q escapes destination", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(path, file.Mode()); err != nil {
				return errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", path, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", filepath.Dir(path), err)
		}

		outFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", path)
		}

		rc, err := file.Open()
		if err != nil {
			outFile.Close()
			return errors.Wrapf(err, "failed to open zip entry %s", file.Name)
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()

		if err != nil {
			return errors.Wrapf(err, "failed to extract %s", file.Name)
		}
	}

	return nil
}

// extractTar unpacks an uncompressed tar stream into destDir.
func extractTar(r io.Reader, destDir string) error {
	tarReader := tar.NewReader(r)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to read tar header")
		}

		target := filepath.Join(destDir, header.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return errors.Errorf("tar entry %q escapes destination", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", filepath.Dir(target), err)
			}

			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return errors.Wrapf(err, "failed to create %s", target)
			}

			if _, err := io.Copy(outFile, tarReader); err != nil {
				outFile.Close()
				return errors.Wrapf(err, "failed to extract %s", header.Name)
			}

			outFile.Close()

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(errors.ErrCreateDirectory, "%s: %v", filepath.Dir(target), err)
			}
			// Replace an existing link rather than failing the unpack.
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return errors.Wrapf(err, "failed to link %s", header.Name)
			}
		}
	}

	return nil
}
