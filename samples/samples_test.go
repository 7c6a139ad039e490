package samples

import (
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

type recordingLoader struct {
	requests []Request
}

func (l *recordingLoader) Load(req Request) {
	l.requests = append(l.requests, req)
}

func TestParseEntry(t *testing.T) {
	s, err := ParseEntry("!s22050,r48,p,a10,b200,c1,d,e5!https://example.com/kick.wav")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := Sample{
		Raw:           "!s22050,r48,p,a10,b200,c1,d,e5!https://example.com/kick.wav",
		URL:           "https://example.com/kick.wav",
		SampleRate:    22050,
		RootKey:       48,
		Percussion:    true,
		LoopStart:     10,
		LoopEnd:       200,
		LoopMode:      1,
		PlayBackwards: true,
		StartOffset:   5,
	}
	if !reflect.DeepEqual(s, want) {
		t.Fatalf("expected %s, got %s", spew.Sdump(want), spew.Sdump(s))
	}

	s, err = ParseEntry("http://example.com/a.wav")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.SampleRate != DefaultSampleRate || s.RootKey != DefaultRootKey || s.LoopStart != -1 {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestParseEntryRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"not a url",
		"ftp://example.com/a.wav",
		"/local/file.wav",
		"!s44100https://example.com/a.wav",
		"!sfast!https://example.com/a.wav",
	} {
		if _, err := ParseEntry(raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("%q: expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestRegisterCustomWave(t *testing.T) {
	loader := &recordingLoader{}
	r := NewRegistry(loader)
	builtin := len(BuiltinWaves)
	if r.WaveCount() != builtin {
		t.Fatalf("expected %d waves, got %d", builtin, r.WaveCount())
	}

	s, _ := ParseEntry("https://example.com/a.wav")
	if got := r.RegisterCustomWave(s); got != builtin {
		t.Fatalf("expected slot %d, got %d", builtin, got)
	}
	if got := r.RegisterCustomWave(s); got != builtin {
		t.Fatalf("expected the same slot again, got %d", got)
	}
	if r.WaveCount() != builtin+1 {
		t.Fatalf("expected %d waves, got %d", builtin+1, r.WaveCount())
	}
	if r.WaveName(builtin) != "https://example.com/a.wav" || r.WaveIndex("https://example.com/a.wav") != builtin {
		t.Fatalf("expected the sample to be listed by its url")
	}
	if r.WaveIndex("square") != 2 || r.WaveName(-1) != "" || r.WaveName(builtin+1) != "" {
		t.Fatalf("unexpected built-in lookups")
	}
	if len(loader.requests) != 1 || loader.requests[0].Index != builtin {
		t.Fatalf("expected one load request for slot %d, got %v", builtin, loader.requests)
	}
	if r.Status(s.URL) != StatusLoading {
		t.Fatalf("expected loading, got %v", r.Status(s.URL))
	}
}

func TestLoadingCounters(t *testing.T) {
	r := NewRegistry(nil)
	var calls [][2]int
	remove := r.OnChange(func(loaded, total int) {
		calls = append(calls, [2]int{loaded, total})
	})

	errs := r.Sync([]string{"https://example.com/a.wav", "bogus", "https://example.com/b.wav"})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	r.MarkLoaded("https://example.com/a.wav")
	r.MarkFailed("https://example.com/b.wav")
	r.MarkLoaded("https://example.com/b.wav")
	r.MarkLoaded("https://example.com/unknown.wav")

	if loaded, total := r.Counts(); loaded != 2 || total != 2 {
		t.Fatalf("expected 2/2, got %d/%d", loaded, total)
	}
	if r.Status("https://example.com/b.wav") != StatusFailed {
		t.Fatalf("expected failed, got %v", r.Status("https://example.com/b.wav"))
	}
	want := [][2]int{{0, 2}, {1, 2}, {2, 2}}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("expected notifications %v, got %v", want, calls)
	}

	remove()
	r.Reset()
	if len(calls) != 3 {
		t.Fatalf("expected no notification after removal, got %v", calls)
	}
	if r.WaveCount() != len(BuiltinWaves) {
		t.Fatalf("expected only built-in waves after reset")
	}
}

func TestSyncReload(t *testing.T) {
	r := NewRegistry(nil)
	r.Sync([]string{"https://example.com/a.wav"})
	if r.ReloadRequired() {
		t.Fatalf("expected no reload for the first samples")
	}
	r.Sync([]string{"https://example.com/a.wav"})
	if r.ReloadRequired() {
		t.Fatalf("expected no reload when nothing changed")
	}
	r.Sync([]string{"https://example.com/b.wav"})
	if !r.ReloadRequired() {
		t.Fatalf("expected a reload after replacing a sample")
	}
	if r.WaveIndex("https://example.com/b.wav") != len(BuiltinWaves) {
		t.Fatalf("expected the new sample in the first custom slot")
	}
	r.ClearReload()
	if r.ReloadRequired() {
		t.Fatalf("expected the flag to be cleared")
	}
}

func TestUsableEntries(t *testing.T) {
	kept, errs := Usable([]string{
		"https://example.com/a.wav",
		"bogus",
		"!s8000!https://example.com/a.wav",
		"https://example.com/b.wav",
	})
	want := []string{"https://example.com/a.wav", "https://example.com/b.wav"}
	if !reflect.DeepEqual(kept, want) {
		t.Fatalf("expected %v, got %v", want, kept)
	}
	if len(errs) != 2 || !errors.Is(errs[0], ErrInvalidURL) || !errors.Is(errs[1], ErrDuplicateURL) {
		t.Fatalf("expected an invalid and a duplicate entry, got %v", errs)
	}
}
