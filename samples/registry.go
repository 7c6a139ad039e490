// Package samples keeps the table of chip waves a song can select: the
// built-in waves followed by custom samples registered from a song's sample
// section. It also tracks the loading state of those samples. Fetching and
// decoding the audio is left to a Loader.
package samples

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

var statusNames = []string{"unknown", "loading", "loaded", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Request asks a Loader to fetch a sample into chip wave slot Index.
type Request struct {
	Index  int
	Sample Sample
}

// Loader fetches samples in the background and reports back through
// MarkLoaded and MarkFailed.
type Loader interface {
	Load(req Request)
}

type listener struct {
	id int
	fn func(loaded, total int)
}

// Registry is the chip wave table. The zero value is not usable; use
// NewRegistry.
type Registry struct {
	mu        sync.Mutex
	builtin   []string
	custom    []Sample
	status    map[string]Status
	loaded    int
	total     int
	listeners []listener
	nextID    int
	reload    bool
	loader    Loader
}

// NewRegistry returns a registry holding only the built-in waves. loader may
// be nil, in which case samples stay in the loading state until marked.
func NewRegistry(loader Loader) *Registry {
	return &Registry{
		builtin: slices.Clone(BuiltinWaves),
		status:  map[string]Status{},
		loader:  loader,
	}
}

var defaultRegistry = NewRegistry(nil)

// Default returns the process wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Reset drops every custom sample and all loading state.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.custom = nil
	r.status = map[string]Status{}
	r.loaded, r.total = 0, 0
	r.reload = false
	r.mu.Unlock()
	r.notify()
}

// RegisterCustomWave appends a sample to the wave table and returns its wave
// index. A sample whose URL is already registered keeps its slot.
func (r *Registry) RegisterCustomWave(s Sample) int {
	r.mu.Lock()
	index, added := r.registerLocked(s)
	r.mu.Unlock()
	if added {
		r.request(index, s)
		r.notify()
	}
	return index
}

func (r *Registry) registerLocked(s Sample) (int, bool) {
	for i, c := range r.custom {
		if c.URL == s.URL {
			return len(r.builtin) + i, false
		}
	}
	r.custom = append(r.custom, s)
	if _, ok := r.status[s.URL]; !ok {
		r.status[s.URL] = StatusLoading
		r.total++
	}
	return len(r.builtin) + len(r.custom) - 1, true
}

func (r *Registry) request(index int, s Sample) {
	if r.loader != nil {
		r.loader.Load(Request{Index: index, Sample: s})
	}
}

// Usable returns the entries that get a custom wave slot of their own, in
// order: entries that fail to parse and repeats of an earlier URL are left
// out. A song keeping only these entries has one sample per slot.
func Usable(entries []string) ([]string, []error) {
	var kept []string
	var errs []error
	seen := map[string]bool{}
	for _, e := range entries {
		s, err := ParseEntry(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[s.URL] {
			errs = append(errs, errors.Wrapf(ErrDuplicateURL, "%q", e))
			continue
		}
		seen[s.URL] = true
		kept = append(kept, e)
	}
	return kept, errs
}

// Sync makes the custom waves match the entries of a song's sample section.
// Entries that fail to parse are skipped and returned as errors. Replacing
// samples that are already in use cannot be done in place, so in that case
// the reload flag is raised instead.
func (r *Registry) Sync(entries []string) []error {
	var errs []error
	wanted := make([]Sample, 0, len(entries))
	for _, e := range entries {
		s, err := ParseEntry(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		wanted = append(wanted, s)
	}

	r.mu.Lock()
	same := len(wanted) == len(r.custom)
	for i := 0; same && i < len(wanted); i++ {
		same = wanted[i].Raw == r.custom[i].Raw
	}
	if same {
		r.mu.Unlock()
		return errs
	}
	if len(r.custom) > 0 {
		r.reload = true
	}
	r.custom = nil
	type pending struct {
		index  int
		sample Sample
	}
	var requests []pending
	for _, s := range wanted {
		if index, added := r.registerLocked(s); added {
			requests = append(requests, pending{index, s})
		}
	}
	r.mu.Unlock()

	for _, p := range requests {
		r.request(p.index, p.sample)
	}
	r.notify()
	return errs
}

// WaveCount is the number of selectable chip waves.
func (r *Registry) WaveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.builtin) + len(r.custom)
}

// WaveName returns the name of wave i, or "" if there is no such wave.
func (r *Registry) WaveName(i int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case i < 0:
		return ""
	case i < len(r.builtin):
		return r.builtin[i]
	case i-len(r.builtin) < len(r.custom):
		return r.custom[i-len(r.builtin)].Name()
	}
	return ""
}

// WaveIndex returns the index of the named wave, or -1.
func (r *Registry) WaveIndex(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.Index(r.builtin, name); i >= 0 {
		return i
	}
	for i, c := range r.custom {
		if c.Name() == name {
			return len(r.builtin) + i
		}
	}
	return -1
}

// CustomSamples returns the registered custom samples in slot order.
func (r *Registry) CustomSamples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.custom)
}

// Status reports the loading state of the sample at url.
func (r *Registry) Status(url string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[url]
}

// MarkLoaded records that the sample at url finished loading.
func (r *Registry) MarkLoaded(url string) {
	r.mark(url, StatusLoaded)
}

// MarkFailed records that the sample at url could not be loaded.
func (r *Registry) MarkFailed(url string) {
	r.mark(url, StatusFailed)
}

func (r *Registry) mark(url string, st Status) {
	r.mu.Lock()
	prev, ok := r.status[url]
	if !ok || prev != StatusLoading {
		r.mu.Unlock()
		return
	}
	r.status[url] = st
	r.loaded++
	r.mu.Unlock()
	r.notify()
}

// Counts returns how many samples finished (loaded or failed) out of the
// total requested.
func (r *Registry) Counts() (loaded, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded, r.total
}

// OnChange registers fn to be called whenever the set of samples or their
// loading state changes. The returned function removes it again.
func (r *Registry) OnChange(fn func(loaded, total int)) (remove func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners = append(r.listeners, listener{id, fn})
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.listeners = slices.DeleteFunc(r.listeners, func(l listener) bool { return l.id == id })
	}
}

func (r *Registry) notify() {
	r.mu.Lock()
	loaded, total := r.loaded, r.total
	fns := make([]func(int, int), len(r.listeners))
	for i, l := range r.listeners {
		fns[i] = l.fn
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(loaded, total)
	}
}

// ReloadRequired reports whether custom samples were replaced since the last
// ClearReload, meaning the caller has to rebuild whatever holds the loaded
// audio.
func (r *Registry) ReloadRequired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reload
}

func (r *Registry) ClearReload() {
	r.mu.Lock()
	r.reload = false
	r.mu.Unlock()
}
