// Package loader reads source material from the local file system or any
// afs-addressable location and turns it into documents ready for chunking.
// Content is routed by file extension: plain text and code pass through,
// while CSV, PDF and spreadsheet formats are flattened to text first.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentic-platform/ragcore/schema"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"golang.org/x/sync/errgroup"

	// Register cloud schemes so s3:// and gs:// URLs load transparently.
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)

var (
	// ErrUnsupportedFormat indicates a file extension no extractor handles.
	ErrUnsupportedFormat = errors.New("loader: unsupported format")
	// ErrNotFound indicates the requested location does not exist.
	ErrNotFound = errors.New("loader: not found")
)

// defaultConcurrency bounds parallel downloads when loading a directory.
const defaultConcurrency = 8

// Service loads documents from afs locations.
type Service struct {
	fs          afs.Service
	concurrency int
}

// Option customises the loader.
type Option func(*Service)

// WithConcurrency bounds the number of files read in parallel.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New creates a loader service.
func New(opts ...Option) *Service {
	srv := &Service{
		fs:          afs.New(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Load reads the location, which may be a single file or a directory, and
// returns one document per file in lexical URL order.
func (s *Service) Load(ctx context.Context, location string) ([]schema.Document, error) {
	norm, err := normalize(location)
	if err != nil {
		return nil, err
	}
	object, err := s.fs.Object(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, location)
	}
	if object.IsDir() {
		candidates, err := s.listFiles(ctx, norm)
		if err != nil {
			return nil, err
		}
		return s.loadAll(ctx, candidates)
	}
	doc, err := s.LoadFile(ctx, norm)
	if err != nil {
		return nil, err
	}
	return []schema.Document{doc}, nil
}

// LoadFile reads one file and extracts its text content. The resulting
// document carries the source location in its metadata.
func (s *Service) LoadFile(ctx context.Context, URL string) (schema.Document, error) {
	ok, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return schema.Document{}, fmt.Errorf("check %v: %w", URL, err)
	}
	if !ok {
		return schema.Document{}, fmt.Errorf("%w: %v", ErrNotFound, URL)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return schema.Document{}, fmt.Errorf("download %v: %w", URL, err)
	}
	return s.LoadData(URL, data)
}

// LoadData extracts text from in-memory content, routed by the name's
// extension.
func (s *Service) LoadData(name string, data []byte) (schema.Document, error) {
	text, err := Extract(name, data)
	if err != nil {
		return schema.Document{}, err
	}
	return schema.Document{
		PageContent: text,
		Metadata:    map[string]interface{}{schema.MetaSource: name},
	}, nil
}

// listFiles walks the directory tree and returns supported file URLs.
func (s *Service) listFiles(ctx context.Context, URL string) ([]string, error) {
	objects, err := s.fs.List(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("list %v: %w", URL, err)
	}
	var result []string
	for _, object := range objects {
		name := object.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if object.IsDir() {
			if url.Equals(object.URL(), URL) {
				continue
			}
			sub, err := s.listFiles(ctx, url.Join(URL, name))
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
			continue
		}
		if !SupportedExt(filepath.Ext(name)) {
			continue
		}
		result = append(result, object.URL())
	}
	sort.Strings(result)
	return result, nil
}

func (s *Service) loadAll(ctx context.Context, URLs []string) ([]schema.Document, error) {
	docs := make([]schema.Document, len(URLs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, URL := range URLs {
		group.Go(func() error {
			doc, err := s.LoadFile(groupCtx, URL)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// normalize makes relative paths absolute and converts bare OS paths to
// file:// URLs so every afs scheme is addressed uniformly.
func normalize(location string) (string, error) {
	norm := location
	if url.Scheme(norm, "") == "" && url.IsRelative(norm) {
		var err error
		norm, err = filepath.Abs(norm)
		if err != nil {
			return "", fmt.Errorf("absolute path for %s: %w", location, err)
		}
	}
	if url.Scheme(norm, "") == "" && !url.IsRelative(norm) {
		norm = url.ToFileURL(norm)
	}
	return norm, nil
}
