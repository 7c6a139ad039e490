package samples

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultSampleRate = 44100
	DefaultRootKey    = 60
)

var (
	ErrInvalidURL   = errors.New("invalid sample url")
	ErrDuplicateURL = errors.New("sample url already listed")
)

// Sample is one custom chip wave taken from a song's sample section.
type Sample struct {
	// Raw is the entry exactly as it appears in the song, options included.
	Raw        string
	URL        string
	SampleRate int
	RootKey    float64
	Percussion bool

	// Loop options. -1 leaves the loaded sample's own value in place.
	LoopStart     int
	LoopEnd       int
	LoopMode      int
	PlayBackwards bool
	StartOffset   int
}

// ParseEntry parses a decoded sample section entry of the form
// [!option,option,...!]url. Options are s<sample rate>, r<root key>, p
// (percussion), a<loop start>, b<loop end>, c<loop mode>, d (backwards) and
// e<start offset>. Only absolute http and https URLs are accepted.
func ParseEntry(raw string) (Sample, error) {
	s := Sample{
		Raw:         raw,
		SampleRate:  DefaultSampleRate,
		RootKey:     DefaultRootKey,
		LoopStart:   -1,
		LoopEnd:     -1,
		LoopMode:    -1,
		StartOffset: -1,
	}

	rest := raw
	if strings.HasPrefix(rest, "!") {
		end := strings.Index(rest[1:], "!")
		if end < 0 {
			return Sample{}, errors.Wrapf(ErrInvalidURL, "unterminated options in %q", raw)
		}
		if err := s.parseOptions(rest[1 : end+1]); err != nil {
			return Sample{}, errors.Wrapf(err, "sample %q", raw)
		}
		rest = rest[end+2:]
	}

	u, err := url.Parse(rest)
	if err != nil {
		return Sample{}, errors.Wrapf(ErrInvalidURL, "%q: %v", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Sample{}, errors.Wrapf(ErrInvalidURL, "%q is not an http(s) url", raw)
	}
	s.URL = rest
	return s, nil
}

func (s *Sample) parseOptions(options string) error {
	for _, opt := range strings.Split(options, ",") {
		if opt == "" {
			continue
		}
		arg := opt[1:]
		var err error
		switch opt[0] {
		case 's':
			s.SampleRate, err = strconv.Atoi(arg)
		case 'r':
			s.RootKey, err = strconv.ParseFloat(arg, 64)
		case 'p':
			s.Percussion = true
		case 'a':
			s.LoopStart, err = strconv.Atoi(arg)
		case 'b':
			s.LoopEnd, err = strconv.Atoi(arg)
		case 'c':
			s.LoopMode, err = strconv.Atoi(arg)
		case 'd':
			s.PlayBackwards = true
		case 'e':
			s.StartOffset, err = strconv.Atoi(arg)
		default:
			// Options added by newer editors are ignored.
		}
		if err != nil {
			return errors.Wrapf(ErrInvalidURL, "bad option %q", opt)
		}
	}
	return nil
}

// Name is the chip wave name the sample is listed under.
func (s Sample) Name() string {
	return s.URL
}
