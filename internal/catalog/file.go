package catalog

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/hampers-storefront/internal/identity"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
	"github.com/fairyhunter13/hampers-storefront/internal/obs"
)

// FileSource serves products from a YAML file and republishes the whole
// list whenever the file changes on disk.
//
//	products:
//	  - id: lebaran-01
//	    name: Hampers Lebaran
//	    price: 150000
//	    img: https://example.com/lebaran.jpg
type FileSource struct {
	path     string
	debounce time.Duration
}

type catalogFile struct {
	Products []model.Product `yaml:"products"`
}

// NewFileSource watches path. Bursts of writes within debounce collapse
// into one reload.
func NewFileSource(path string, debounce time.Duration) *FileSource {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &FileSource{path: filepath.Clean(path), debounce: debounce}
}

// ReadCatalogFile parses a product file.
func ReadCatalogFile(path string) ([]model.Product, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrap(err, "parse catalog file")
	}
	for i, p := range f.Products {
		if p.ID == "" {
			return nil, errors.Errorf("catalog file: product #%d has no id", i+1)
		}
		if p.Price != nil && !model.ValidPrice(*p.Price) {
			return nil, errors.Errorf("catalog file: product %q has invalid price %v", p.ID, *p.Price)
		}
	}
	if f.Products == nil {
		f.Products = []model.Product{}
	}
	return f.Products, nil
}

func (f *FileSource) load() Update {
	products, err := ReadCatalogFile(f.path)
	if err != nil {
		return Update{Err: err}
	}
	return Update{Products: products}
}

// Subscribe watches the file's directory so editors that save by rename
// are still picked up.
func (f *FileSource) Subscribe(ctx context.Context, _ identity.Identity) (Subscription, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(f.path))
	}
	obs.Logger.WithField("path", f.path).Info("catalog_file_watching")

	return newStream(ctx, func(ctx context.Context, emit emitFunc) {
		defer w.Close()
		if !emit(f.load()) {
			return
		}
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != f.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				pending = time.After(f.debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if !emit(Update{Err: errors.Wrap(err, "watch catalog file")}) {
					return
				}
			case <-pending:
				pending = nil
				if !emit(f.load()) {
					return
				}
			}
		}
	}), nil
}
