package installer

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/xi2/xz"          // For reading .xz compressed data

	"sectools/internal/logger"
)

var (
	// ErrUnsupportedArchive is returned for file names without a known archive extension.
	ErrUnsupportedArchive = errors.New("installer: unsupported archive format")
	// ErrUnsafeArchivePath is returned for entries that would land outside the destination.
	ErrUnsafeArchivePath = errors.New("installer: archive entry escapes destination")
)

// InstallArchive extracts src and moves the result to dest.
// Extraction happens in a staging directory next to dest, so a failed extraction
// never leaves a partial tool behind. A single top-level folder is unwrapped.
func InstallArchive(src, dest string) error {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+"-extract-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := ExtractArchive(src, staging); err != nil {
		return err
	}

	root, err := archiveRoot(staging)
	if err != nil {
		return err
	}
	if err := os.Rename(root, dest); err != nil {
		return fmt.Errorf("move extracted files to %s: %w", dest, err)
	}
	logger.Debug("[DEBUG] Extracted %s to %s\n", src, dest)
	return nil
}

// archiveRoot returns the only top-level directory of an extracted archive, or dir itself.
func archiveRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

// ExtractArchive routes to the appropriate extraction function based on archive type.
func ExtractArchive(src, dest string) error {
	name := strings.ToLower(src)
	switch {
	case strings.HasSuffix(name, ".zip"):
		logger.Debug("[DEBUG] compression type is zip\n")
		return extractZip(src, dest)
	case strings.HasSuffix(name, ".7z"):
		logger.Debug("[DEBUG] compression type is .7z\n")
		return extract7z(src, dest)
	case strings.HasSuffix(name, ".tar"), strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"),
		strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tar.xz"):
		logger.Debug("[DEBUG] compression type is .tar.*\n")
		return extractTarArchive(src, dest)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedArchive, filepath.Base(src))
	}
}

// entryTarget resolves an archive entry name under dest, rejecting names that escape it.
func entryTarget(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(name, "./")))
	if clean == "." {
		return dest, nil
	}
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}
	return filepath.Join(dest, clean), nil
}

// writeLink creates a symlink at target pointing to linkname. Links whose target
// resolves outside dest are rejected with ErrUnsafeArchivePath.
func writeLink(dest, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: link %s -> %s", ErrUnsafeArchivePath, target, linkname)
	}
	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))
	rel, err := filepath.Rel(dest, resolved)
	if err != nil || !filepath.IsLocal(rel) {
		return fmt.Errorf("%w: link %s -> %s", ErrUnsafeArchivePath, target, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Symlink(linkname, target)
}

// skipLink warns about a link entry that could not be recreated. The rest of the archive is still extracted.
func skipLink(name string, err error) {
	logger.Warn("[WARN] Skipping archive link %s: %v\n", name, err)
}

// writeEntry copies r into target, creating parent directories.
func writeEntry(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// linkFromEntry recreates a zip or 7z symlink entry, whose content is the link target.
func linkFromEntry(dest, target, name string, r io.Reader) error {
	linkname, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return err
	}
	if err := writeLink(dest, target, string(linkname)); err != nil {
		if !errors.Is(err, ErrUnsafeArchivePath) {
			return err
		}
		skipLink(name, err)
	}
	return nil
}

// extractTarArchive handles tar and compressed tar variants.
func extractTarArchive(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	name := strings.ToLower(src)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(name, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(name, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := entryTarget(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeLink(dest, target, hdr.Linkname); err != nil {
				if !errors.Is(err, ErrUnsafeArchivePath) {
					return err
				}
				skipLink(hdr.Name, err)
			}
		case tar.TypeLink:
			src, err := entryTarget(dest, hdr.Linkname)
			if err == nil {
				err = os.Link(src, target)
			}
			if err != nil {
				skipLink(hdr.Name, err)
			}
		default:
			logger.Warn("[WARN] Skipping tar entry %s (type %c)\n", hdr.Name, hdr.Typeflag)
		}
	}
}

// extractZip extracts a .zip archive.
func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := entryTarget(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		if f.Mode()&fs.ModeSymlink != 0 {
			err = linkFromEntry(dest, target, f.Name, rc)
		} else {
			err = writeEntry(target, rc, f.Mode().Perm())
		}
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extract7z handles .7z extraction using the sevenzip library.
func extract7z(src, dest string) error {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := entryTarget(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		if f.Mode()&fs.ModeSymlink != 0 {
			err = linkFromEntry(dest, target, f.Name, rc)
		} else {
			err = writeEntry(target, rc, f.Mode().Perm())
		}
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
