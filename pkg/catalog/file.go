package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// FileSource reads tour definitions from a directory of YAML files, one
// tour per file. It re-reads the directory on every call, so a Catalog
// in front of it decides the caching; Watch makes it reload-aware.
type FileSource struct {
	dir    string
	logger *slog.Logger
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithFileLogger configures a logger for watch errors.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(s *FileSource) {
		s.logger = logging.OrNop(logger)
	}
}

// NewFileSource reads tours from *.yaml and *.yml files under dir.
func NewFileSource(dir string, opts ...FileOption) *FileSource {
	s := &FileSource{
		dir:    dir,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ ports.CatalogSource = (*FileSource)(nil)
	_ ports.Watchable     = (*FileSource)(nil)
)

// Tours parses every tour file under the directory, sorted by filename
// so the order is stable across loads.
func (s *FileSource) Tours(ctx context.Context) ([]domain.Tour, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read tour directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isTourFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	tours := make([]domain.Tour, 0, len(names))
	for _, name := range names {
		tour, err := s.parseFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		tours = append(tours, tour)
	}
	return tours, nil
}

// Tour loads the named tour, or ErrNoTour.
func (s *FileSource) Tour(ctx context.Context, name string) (*domain.Tour, error) {
	tours, err := s.Tours(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tours {
		if tours[i].Name == name {
			return &tours[i], nil
		}
	}
	return nil, fmt.Errorf("tour %q: %w", name, domain.ErrNoTour)
}

// Watch reports directory changes that touch tour files. Bursts
// coalesce into a single pending notification; the channel never
// blocks the watcher.
func (s *FileSource) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isTourFile(filepath.Base(event.Name)) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Tour directory watch error", "dir", s.dir, "err", err)
			}
		}
	}()
	return changes, nil
}

func isTourFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (s *FileSource) parseFile(path string) (domain.Tour, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var doc tourDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.Tour{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if doc.Name == "" {
		// The filename is the tour name unless the document says otherwise.
		base := filepath.Base(path)
		doc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return doc.toTour(), nil
}

// tourDoc is the authoring schema for one YAML tour file.
type tourDoc struct {
	Name  string    `yaml:"name"`
	Title string    `yaml:"title"`
	View  string    `yaml:"view"`
	Steps []stepDoc `yaml:"steps"`
}

type stepDoc struct {
	ID             string     `yaml:"id"`
	TargetSelector stringList `yaml:"targetSelector"`
	Title          string     `yaml:"title"`
	Content        string     `yaml:"content"`
	Position       string     `yaml:"position"`
	WaitForElement bool       `yaml:"waitForElement"`
	Delay          delay      `yaml:"delay"`
	OnAdvance      string     `yaml:"onAdvance"`
	Requires       []string   `yaml:"requires"`
}

func (d tourDoc) toTour() domain.Tour {
	tour := domain.Tour{
		Name:  d.Name,
		Title: d.Title,
		View:  d.View,
		Steps: make([]domain.Step, 0, len(d.Steps)),
	}
	for _, s := range d.Steps {
		tour.Steps = append(tour.Steps, domain.Step{
			ID:            s.ID,
			Locators:      []string(s.TargetSelector),
			Title:         s.Title,
			Body:          s.Content,
			Side:          domain.Side(strings.ToLower(s.Position)),
			WaitForTarget: s.WaitForElement,
			AppearDelay:   time.Duration(s.Delay),
			OnAdvance:     s.OnAdvance,
			Requires:      s.Requires,
		})
	}
	return tour
}

// stringList accepts a scalar or a sequence, so authors can write one
// selector or a fallback chain under the same key.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = stringList{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := value.Decode(&ss); err != nil {
			return err
		}
		*l = stringList(ss)
		return nil
	default:
		return fmt.Errorf("line %d: targetSelector must be a string or a list", value.Line)
	}
}

// delay accepts bare integers as milliseconds, the authoring
// convention, or Go duration strings like "1.5s".
type delay time.Duration

func (d *delay) UnmarshalYAML(value *yaml.Node) error {
	var ms int64
	if err := value.Decode(&ms); err == nil {
		*d = delay(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: delay must be milliseconds or a duration string", value.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = delay(parsed)
	return nil
}
