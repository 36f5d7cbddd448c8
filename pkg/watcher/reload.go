package watcher

import (
	"time"

	"github.com/vanderheijden86/commitspread/pkg/loader"
	"github.com/vanderheijden86/commitspread/pkg/model"
)

// Update is one reload attempt of the dataset.
type Update struct {
	Records []model.Record
	Skipped int
	Err     error
	At      time.Time
}

// Reloader re-reads the dataset each time its file settles after a change.
// Only the newest update is kept when the consumer falls behind.
type Reloader struct {
	w       *Watcher
	load    func(path string) (loader.Result, error)
	updates chan Update
}

// NewReloader watches a JSON dataset file. Options are passed to the
// watcher; WithOnChange and WithOnError are overridden.
func NewReloader(path string, opts ...WatcherOption) (*Reloader, error) {
	return NewReloaderFunc(path, loader.LoadFile, opts...)
}

// NewReloaderFunc is NewReloader with a custom load function, for sources
// that are not plain JSON files.
func NewReloaderFunc(path string, load func(path string) (loader.Result, error), opts ...WatcherOption) (*Reloader, error) {
	r := &Reloader{
		load:    load,
		updates: make(chan Update, 1),
	}
	opts = append(opts,
		WithOnChange(r.reload),
		WithOnError(func(err error) { r.publish(Update{Err: err, At: time.Now()}) }),
	)
	w, err := NewWatcher(path, opts...)
	if err != nil {
		return nil, err
	}
	r.w = w
	return r, nil
}

// Start begins watching.
func (r *Reloader) Start() error { return r.w.Start() }

// Stop ends watching.
func (r *Reloader) Stop() { r.w.Stop() }

// Watcher exposes the underlying file watcher.
func (r *Reloader) Watcher() *Watcher { return r.w }

// Updates delivers reload results.
func (r *Reloader) Updates() <-chan Update { return r.updates }

func (r *Reloader) reload() {
	res, err := r.load(r.w.Path())
	r.publish(Update{Records: res.Records, Skipped: res.Skipped, Err: err, At: time.Now()})
}

func (r *Reloader) publish(u Update) {
	for {
		select {
		case r.updates <- u:
			return
		default:
		}
		select {
		case <-r.updates:
		default:
		}
	}
}
