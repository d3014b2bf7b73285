// Package archive unpacks release zipballs into the working directory.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrEmpty is returned when the archive holds nothing under the folder.
var ErrEmpty = errors.New("no application files found in archive")

// Stats summarizes an extraction.
type Stats struct {
	Files     int
	Bytes     uint64
	Htaccess  []string
	Destroyed bool
}

// String renders the stats for progress messages.
func (s Stats) String() string {
	return fmt.Sprintf("%d files, %s", s.Files, humanize.Bytes(s.Bytes))
}

// Options control an extraction.
type Options struct {
	// Folder selects the application root inside the archive. The first path
	// segment is matched either exactly or, with slashes read as dashes, as a
	// prefix, which covers GitHub zipballs named owner-repo-sha.
	Folder string
	// AppendHtaccess is appended to every extracted .htaccess file.
	AppendHtaccess string
	// RemoveArchive deletes the zip after a successful extraction.
	RemoveArchive bool
}

// Extract unpacks the files under opts.Folder from the zip at src into dest.
func Extract(ctx context.Context, src, dest string, opts Options) (Stats, error) {
	var stats Stats

	r, err := zip.OpenReader(src)
	if err != nil {
		return stats, fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer func() { _ = r.Close() }()

	root, err := filepath.Abs(dest)
	if err != nil {
		return stats, err
	}

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rel, ok := stripRoot(f.Name, opts.Folder)
		if !ok || rel == "" {
			continue
		}

		target, err := safeJoin(root, rel)
		if err != nil {
			return stats, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return stats, fmt.Errorf("failed to create %s: %w", target, err)
			}
			continue
		}

		n, err := writeFile(f, target)
		if err != nil {
			return stats, err
		}
		stats.Files++
		stats.Bytes += uint64(n)
		if path.Base(rel) == ".htaccess" {
			stats.Htaccess = append(stats.Htaccess, target)
		}
	}

	if stats.Files == 0 {
		return stats, fmt.Errorf("%w under %q", ErrEmpty, opts.Folder)
	}

	if opts.AppendHtaccess != "" {
		for _, p := range stats.Htaccess {
			if err := appendTo(p, opts.AppendHtaccess); err != nil {
				return stats, err
			}
		}
	}

	if opts.RemoveArchive {
		_ = r.Close()
		if err := os.Remove(src); err != nil {
			return stats, fmt.Errorf("failed to remove archive %s: %w", src, err)
		}
		stats.Destroyed = true
	}
	return stats, nil
}

// stripRoot removes the application folder from an entry name.
func stripRoot(name, folder string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if folder == "" {
		return name, true
	}

	first, rest, _ := strings.Cut(name, "/")
	folder = strings.TrimSuffix(folder, "/")
	if first == folder {
		return rest, true
	}
	if dashed := strings.ReplaceAll(folder, "/", "-"); strings.HasSuffix(dashed, "-") && strings.HasPrefix(first, dashed) {
		return rest, true
	}
	return "", false
}

// safeJoin joins rel under root and rejects entries escaping it.
func safeJoin(root, rel string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(rel))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal file path in archive: %s", rel)
	}
	return target, nil
}

func writeFile(f *zip.File, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	// #nosec G304 - target is confined to the destination by safeJoin
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}
	// #nosec G110 - archives come from the vendor or the configured mirror
	n, err := io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return n, nil
}

func appendTo(p, text string) error {
	// #nosec G304 - p was produced by the extraction
	f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p, err)
	}
	_, err = f.WriteString("\n\n" + text + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to append handlers to %s: %w", p, err)
	}
	return nil
}
