package codec

import (
	"testing"

	"github.com/QEStudios/boxcodec/codec/jsonsong"
	"github.com/QEStudios/boxcodec/samples"
	"github.com/QEStudios/boxcodec/song"
)

func TestJSONInputIsDetected(t *testing.T) {
	data, err := jsonsong.Marshal(song.New(), jsonsong.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	s := mustDecode(t, "  \n"+string(data))
	diff(t, song.New(), s)
}

func TestFullSongThroughJSON(t *testing.T) {
	s := fullSong()
	opts := jsonsong.DefaultOptions()
	opts.Waves = samples.NewRegistry(nil)
	data, err := jsonsong.Marshal(s, opts)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	d := newTestDecoder()
	got, err := d.Decode(string(data))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(d.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %v", d.Warnings())
	}
	diff(t, s, got)
	if mustEncode(t, got) != mustEncode(t, s) {
		t.Fatalf("expected the same compact form after a JSON round trip")
	}
}

func TestJSONErrorsPassThrough(t *testing.T) {
	if _, err := newTestDecoder().Decode("{\"name\": "); err == nil {
		t.Fatalf("expected an error for malformed JSON")
	}
}
