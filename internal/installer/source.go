package installer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"sectools/internal/logger"
	"sectools/internal/runner"
)

// Cloner fetches a source repository into dest. dest must not exist yet.
type Cloner interface {
	Clone(ctx context.Context, repoURL, dest string) error
}

// ExecCloner clones with the git binary.
type ExecCloner struct {
	Runner runner.CommandRunner
}

// Clone runs `git clone <repoURL> <dest>`.
func (c ExecCloner) Clone(ctx context.Context, repoURL, dest string) error {
	logger.Debug("[DEBUG] git clone %s %s\n", repoURL, dest)
	return runner.Check(ctx, c.Runner, "git", "clone", repoURL, dest)
}

// GoGitCloner clones in-process with go-git, for hosts where git is not installed yet.
type GoGitCloner struct {
	// Progress receives the remote's sideband output when set.
	Progress io.Writer
}

// Clone performs a full clone of the default branch.
func (c GoGitCloner) Clone(ctx context.Context, repoURL, dest string) error {
	logger.Debug("[DEBUG] go-git clone %s %s\n", repoURL, dest)
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:      repoURL,
		Progress: c.Progress,
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w", repoURL, err)
	}
	return nil
}

// ArchiveFetcher downloads a release archive and unpacks it into dest.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, archiveURL, dest string) error
}

// HTTPArchiveFetcher downloads archives over HTTP(S).
type HTTPArchiveFetcher struct {
	Client *http.Client
}

// Fetch downloads archiveURL to a temporary file and extracts it into dest.
// A single top-level folder in the archive becomes dest itself.
// The archive format comes from the Content-Disposition file name when the server
// sends one, and from the last element of the URL path otherwise.
func (f HTTPArchiveFetcher) Fetch(ctx context.Context, archiveURL, dest string) error {
	u, err := url.Parse(archiveURL)
	if err != nil {
		return fmt.Errorf("parse archive url %q: %w", archiveURL, err)
	}

	tmpDir, err := os.MkdirTemp("", "sectools-download-")
	if err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	archivePath, err := f.download(ctx, archiveURL, tmpDir, path.Base(u.Path))
	if err != nil {
		return err
	}

	return InstallArchive(archivePath, dest)
}

// download saves the content at archiveURL into dir and returns the file path.
// The file keeps its name: the extension selects the extractor.
func (f HTTPArchiveFetcher) download(ctx context.Context, archiveURL, dir, fallbackName string) (string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", archiveURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to GET %s: %w", archiveURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s failed: HTTP status %d", archiveURL, resp.StatusCode)
	}

	name := fallbackName
	if attached := attachmentName(resp.Header.Get("Content-Disposition")); attached != "" {
		name = attached
	}
	destPath := filepath.Join(dir, name)

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to write response to file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", destPath, err)
	}

	logger.Debug("[DEBUG] Downloaded %s to %s\n", archiveURL, destPath)
	return destPath, nil
}

// attachmentName returns the base file name from a Content-Disposition header, or "".
func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		logger.Debug("[DEBUG] Ignoring Content-Disposition %q: %v\n", header, err)
		return ""
	}
	name := path.Base(strings.ReplaceAll(params["filename"], `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
