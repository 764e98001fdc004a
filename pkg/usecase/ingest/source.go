package ingest

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bankrag/bankrag/pkg/adapter"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Rule maps a top-level directory of the corpus to a category
type Rule struct {
	Dir      string
	Ext      string
	Category model.Category
}

// Layout is the directory layout of the corpus. Other directories, such as
// customer_data/ and transactions/, hold structured or personal data and are
// never embedded.
var Layout = []Rule{
	{Dir: "policies", Ext: ".pdf", Category: model.CategoryPolicy},
	{Dir: "regulations", Ext: ".txt", Category: model.CategoryRegulation},
	{Dir: "internal_memos", Ext: ".txt", Category: model.CategoryMemo},
}

// File is one source document. Path is relative to the corpus root with
// forward slashes and identifies the document in the index.
type File struct {
	Path     string
	Category model.Category
	location string
}

// Source lists and opens corpus documents
type Source interface {
	Files(ctx context.Context) ([]*File, error)
	Open(ctx context.Context, f *File) (io.ReadCloser, error)
}

// CategoryOf returns the category of a relative path, or false when the path is outside Layout
func CategoryOf(rel string) (model.Category, bool) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	dir, name := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")

	for _, r := range Layout {
		if dir == r.Dir && strings.EqualFold(path.Ext(name), r.Ext) {
			return r.Category, true
		}
	}
	return model.CategoryNone, false
}

// DirSource reads documents from a local directory
type DirSource struct {
	root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Root returns the corpus directory
func (s *DirSource) Root() string {
	return s.root
}

func (s *DirSource) Files(ctx context.Context) ([]*File, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, goerr.Wrap(err, "data directory not found", goerr.V("dir", s.root))
	}

	var files []*File
	for _, r := range Layout {
		matches, err := filepath.Glob(filepath.Join(s.root, r.Dir, "*"+r.Ext))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to glob documents", goerr.V("dir", r.Dir))
		}
		sort.Strings(matches)

		for _, m := range matches {
			if f := s.File(m); f != nil {
				files = append(files, f)
			}
		}
	}

	return files, nil
}

// File builds a File from a path under the root, or nil when the path is not part of the corpus
func (s *DirSource) File(p string) *File {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	category, ok := CategoryOf(rel)
	if !ok {
		return nil
	}

	return &File{
		Path:     rel,
		Category: category,
		location: p,
	}
}

func (s *DirSource) Open(ctx context.Context, f *File) (io.ReadCloser, error) {
	r, err := os.Open(f.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open document", goerr.V("path", f.location))
	}
	return r, nil
}

// BucketSource reads documents from a Cloud Storage bucket under a prefix
type BucketSource struct {
	storage adapter.Storage
	prefix  string
}

func NewBucketSource(storage adapter.Storage, prefix string) *BucketSource {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &BucketSource{storage: storage, prefix: prefix}
}

func (s *BucketSource) Files(ctx context.Context) ([]*File, error) {
	names, err := s.storage.List(ctx, s.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list documents", goerr.V("prefix", s.prefix))
	}
	sort.Strings(names)

	var files []*File
	for _, name := range names {
		rel := strings.TrimPrefix(name, s.prefix)
		category, ok := CategoryOf(rel)
		if !ok {
			continue
		}
		files = append(files, &File{
			Path:     rel,
			Category: category,
			location: name,
		})
	}

	return files, nil
}

func (s *BucketSource) Open(ctx context.Context, f *File) (io.ReadCloser, error) {
	return s.storage.Get(ctx, f.location)
}
