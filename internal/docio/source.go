package docio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/kilupskalvis/cfgmerge/internal/models"
)

const gitPrefix = "git:"

// Source identifies where a document comes from: a file path, or a file at
// a git revision written as git:<rev>:<path>
type Source struct {
	Path string
	Rev  string // Empty for plain files
}

// ParseSource parses a source string
func ParseSource(s string) (Source, error) {
	if !strings.HasPrefix(s, gitPrefix) {
		if s == "" {
			return Source{}, fmt.Errorf("empty source")
		}
		return Source{Path: s}, nil
	}

	rest := strings.TrimPrefix(s, gitPrefix)
	rev, path, ok := strings.Cut(rest, ":")
	if !ok || rev == "" || path == "" {
		return Source{}, fmt.Errorf("invalid git source %q (expected git:<rev>:<path>)", s)
	}
	return Source{Path: path, Rev: rev}, nil
}

// IsGit reports whether the source reads from a git revision
func (s Source) IsGit() bool {
	return s.Rev != ""
}

func (s Source) String() string {
	if s.IsGit() {
		return gitPrefix + s.Rev + ":" + s.Path
	}
	return s.Path
}

// Input is a loaded document together with what it was loaded from
type Input struct {
	Source Source
	Format Format
	Raw    []byte
	Doc    models.Document // nil when the document is absent
}

// Loader reads documents from sources. Relative file paths resolve against
// Dir, and git sources use the repository containing Dir. An empty Dir is
// the working directory.
type Loader struct {
	Dir string
}

// Load reads and parses the document named by src. An empty format is
// inferred from the path's extension. A file missing at a git revision is an
// absent document; a missing plain file is an error.
func (l *Loader) Load(src string, format Format) (*Input, error) {
	source, err := ParseSource(src)
	if err != nil {
		return nil, err
	}
	if format == "" {
		if format, err = FormatFromPath(source.Path); err != nil {
			return nil, err
		}
	}

	var raw []byte
	if source.IsGit() {
		raw, err = l.readGit(source)
	} else {
		raw, err = os.ReadFile(l.resolve(source.Path))
	}
	if err != nil {
		return nil, err
	}

	doc, err := Parse(raw, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &Input{Source: source, Format: format, Raw: raw, Doc: doc}, nil
}

func (l *Loader) resolve(path string) string {
	if l.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.Dir, path)
}

// readGit returns the file's contents at the revision, or nil if the
// revision's tree has no such file. Paths are relative to the repository root.
func (l *Loader) readGit(source Source) ([]byte, error) {
	dir := l.Dir
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("git: %w", err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(source.Rev))
	if err != nil {
		return nil, fmt.Errorf("git: resolve %q: %w", source.Rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("git: %w", err)
	}

	file, err := commit.File(filepath.ToSlash(strings.TrimPrefix(source.Path, "./")))
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("git: %w", err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("git: %w", err)
	}
	return []byte(contents), nil
}
