package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
	"github.com/viant/lintexec/model"
)

const fileHeaderPrefix = "diff --git "

// ModifiedFiles returns absolute paths of tracked changes (staged and unstaged) plus untracked files
func (c *Client) ModifiedFiles(ctx context.Context, root string) ([]string, error) {
	tracked, err := c.trackedChanges(ctx, root)
	if err != nil {
		return nil, err
	}
	untracked, err := c.untrackedFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	unique := map[string]bool{}
	var ret []string
	for _, rel := range append(tracked, untracked...) {
		abs := absolute(root, unquotePath(rel))
		if unique[abs] {
			continue
		}
		unique[abs] = true
		ret = append(ret, abs)
	}
	sort.Strings(ret)
	return ret, nil
}

func (c *Client) trackedChanges(ctx context.Context, root string) ([]string, error) {
	output, err := c.run(ctx, root, "diff", "--name-only", "HEAD")
	if err != nil {
		if !isUnknownRevision(err) {
			return nil, fmt.Errorf("failed to list modified files: %w", err)
		}
		c.logger.Debug("repository has no commits, using staged changes", slog.String("root", root))
		if output, err = c.run(ctx, root, "diff", "--cached", "--name-only"); err != nil {
			return nil, fmt.Errorf("failed to list staged files: %w", err)
		}
	}
	return splitLines(output), nil
}

func (c *Client) untrackedFiles(ctx context.Context, root string) ([]string, error) {
	output, err := c.run(ctx, root, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("failed to list untracked files: %w", err)
	}
	return splitLines(output), nil
}

// ModifiedLines returns changed line ranges of tracked files plus whole-file ranges for untracked files
func (c *Client) ModifiedLines(ctx context.Context, root string) ([]model.ModifiedLine, error) {
	output, err := c.run(ctx, root, "diff", "HEAD", "--unified=0")
	if err != nil {
		if !isUnknownRevision(err) {
			return nil, fmt.Errorf("failed to diff modified lines: %w", err)
		}
		if output, err = c.run(ctx, root, "diff", "--cached", "--unified=0"); err != nil {
			return nil, fmt.Errorf("failed to diff staged lines: %w", err)
		}
	}
	ret, err := ParseUnifiedDiff(root, output)
	if err != nil {
		return nil, err
	}
	untracked, err := c.untrackedFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	for _, rel := range untracked {
		location := absolute(root, unquotePath(rel))
		content, err := c.fs.DownloadWithURL(ctx, location)
		if err != nil {
			c.logger.Warn("skipping unreadable untracked file", slog.String("file", location), slog.Any("error", err))
			continue
		}
		if count := CountLines(content); count > 0 {
			ret = append(ret, model.ModifiedLine{File: location, StartLine: 1, LineCount: count})
		}
	}
	return ret, nil
}

// ParseUnifiedDiff extracts added line ranges from `git diff --unified=0` output.
// Each "diff --git a/<old> b/<new>" header selects the new path; hunks without added lines are dropped.
func ParseUnifiedDiff(root string, output string) ([]model.ModifiedLine, error) {
	var ret []model.ModifiedLine
	var file string
	var hunks []string
	flush := func() error {
		defer func() { hunks = hunks[:0] }()
		if file == "" || len(hunks) == 0 {
			return nil
		}
		parsed, err := diff.ParseHunks([]byte(strings.Join(hunks, "\n") + "\n"))
		if err != nil {
			return fmt.Errorf("failed to parse hunks of %v: %w", file, err)
		}
		for _, hunk := range parsed {
			if hunk.NewLines <= 0 {
				continue
			}
			ret = append(ret, model.ModifiedLine{
				File:      absolute(root, file),
				StartLine: int(hunk.NewStartLine),
				LineCount: int(hunk.NewLines),
			})
		}
		return nil
	}
	inHunks := false
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, fileHeaderPrefix) {
			if err := flush(); err != nil {
				return nil, err
			}
			file = newPath(line)
			inHunks = false
			continue
		}
		if strings.HasPrefix(line, "@@ ") {
			inHunks = true
		}
		if inHunks && isHunkLine(line) {
			hunks = append(hunks, line)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return ret, nil
}

// newPath returns the "b/" path of a "diff --git a/<old> b/<new>" header; quoted paths are unescaped
func newPath(header string) string {
	rest := strings.TrimPrefix(header, fileHeaderPrefix)
	if strings.HasSuffix(rest, `"`) {
		if idx := strings.LastIndex(rest, ` "b/`); idx != -1 {
			return strings.TrimPrefix(unquotePath(rest[idx+1:]), "b/")
		}
	}
	if idx := strings.LastIndex(rest, " b/"); idx != -1 {
		return rest[idx+3:]
	}
	return ""
}

// unquotePath decodes a C-style quoted path as printed by git, other paths are returned as is
func unquotePath(location string) string {
	if len(location) < 2 || location[0] != '"' || location[len(location)-1] != '"' {
		return location
	}
	if unquoted, err := strconv.Unquote(location); err == nil {
		return unquoted
	}
	return location
}

func isHunkLine(line string) bool {
	if line == "" {
		return false
	}
	switch line[0] {
	case '@', '+', '-', ' ', '\\':
		return true
	}
	return false
}

// CountLines returns the number of lines in content, counting a final line without newline
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	count := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		count++
	}
	return count
}

func absolute(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
