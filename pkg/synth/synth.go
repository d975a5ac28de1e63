package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
	"github.com/RyanBlaney/spectro-tab/pkg/notes"
)

// Params describe a chord preview
type Params struct {
	SampleRate int           `json:"sample_rate" mapstructure:"sample_rate"`
	Duration   time.Duration `json:"duration" mapstructure:"duration"`
	Gain       float64       `json:"gain" mapstructure:"gain"`
	Pick       float64       `json:"pick" mapstructure:"pick"`
	Decay      float64       `json:"decay" mapstructure:"decay"`
	Damp       float64       `json:"damp" mapstructure:"damp"`
	Brightness float64       `json:"brightness" mapstructure:"brightness"`
	Attack     time.Duration `json:"attack" mapstructure:"attack"`
	Release    time.Duration `json:"release" mapstructure:"release"`
	// MaxStrum is the onset offset of the highest note
	MaxStrum time.Duration `json:"max_strum" mapstructure:"max_strum"`
	// Warmth is the coefficient of the final one-pole low-pass
	Warmth float64 `json:"warmth" mapstructure:"warmth"`
	// Air is how much of the filtered-out residual is mixed back
	Air     float64 `json:"air" mapstructure:"air"`
	Ceiling float64 `json:"ceiling" mapstructure:"ceiling"`
	Seed    uint64  `json:"seed" mapstructure:"seed"`
}

// DefaultParams is a soft nylon-string voicing
func DefaultParams() *Params {
	return &Params{
		SampleRate: 44100,
		Duration:   1200 * time.Millisecond,
		Gain:       0.24,
		Pick:       0.10,
		Decay:      0.9989,
		Damp:       0.54,
		Brightness: 0.24,
		Attack:     3 * time.Millisecond,
		Release:    250 * time.Millisecond,
		MaxStrum:   10 * time.Millisecond,
		Warmth:     0.88,
		Air:        0.18,
		Ceiling:    0.98,
	}
}

// Validate checks the params can produce audio
func (p *Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", p.Duration)
	}
	if p.Ceiling <= 0 || p.Ceiling > 1 {
		return fmt.Errorf("ceiling must be in (0, 1], got %g", p.Ceiling)
	}
	if p.Warmth < 0 || p.Warmth >= 1 {
		return fmt.Errorf("warmth must be in [0, 1), got %g", p.Warmth)
	}
	return nil
}

func (p *Params) samples(d time.Duration) int {
	return int(float64(p.SampleRate) * d.Seconds())
}

// Synth renders chords. Calls are serialised so the note randomness is
// reproducible for a given seed.
type Synth struct {
	params *Params
	logger logging.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynth creates a synth; nil params means DefaultParams
func NewSynth(params *Params, logger logging.Logger) *Synth {
	if params == nil {
		params = DefaultParams()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Synth{
		params: params,
		logger: logger.WithFields(logging.Fields{"component": "synth"}),
		rng:    rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15)),
	}
}

// Params returns the synth settings
func (s *Synth) Params() Params {
	return *s.params
}

type noteJob struct {
	freq  float64
	delay int
	voice Voice
	seed  uint64
}

// Chord renders the given MIDI pitches strummed low to high. Duplicates
// are ignored. No pitches gives silence of the configured duration.
func (s *Synth) Chord(pitches []int) (*audio.SampleBuffer, error) {
	p := s.params
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := p.samples(p.Duration)
	out := make([]float64, n)

	unique := slices.Clone(pitches)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	if len(unique) == 0 {
		return audio.NewSampleBuffer(out, p.SampleRate)
	}

	jobs := s.plan(unique)

	voices := make([][]float64, len(jobs))
	attack, release := p.samples(p.Attack), p.samples(p.Release)
	wp := pool.New().WithMaxGoroutines(len(jobs))
	for i, job := range jobs {
		wp.Go(func() {
			rng := rand.New(rand.NewPCG(job.seed, uint64(i)))
			v := Pluck(job.freq, p.SampleRate, n, job.voice, rng)
			Envelope(v, attack, release)
			voices[i] = v
		})
	}
	wp.Wait()

	for i, v := range voices {
		d := jobs[i].delay
		if d >= n {
			continue
		}
		floats.Add(out[d:], v[:n-d])
	}

	floats.Scale(p.Gain/math.Max(1, float64(len(jobs))*0.85), out)

	if peak := peakAbs(out) + 1e-9; peak > p.Ceiling {
		floats.Scale(p.Ceiling/peak, out)
	}

	soften(out, p.Warmth, p.Air)

	s.logger.Debug("Chord rendered", logging.Fields{
		"pitches": unique,
		"samples": n,
	})
	buf, err := audio.NewSampleBuffer(out, p.SampleRate)
	if err != nil {
		return nil, err
	}
	buf.Source = chordName(unique)
	return buf, nil
}

// Note renders a single pitch
func (s *Synth) Note(pitch int) (*audio.SampleBuffer, error) {
	return s.Chord([]int{pitch})
}

// plan draws every random value from the shared generator up front so
// parallel rendering stays deterministic
func (s *Synth) plan(pitches []int) []noteJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.params
	maxDelay := p.samples(p.MaxStrum)
	jobs := make([]noteJob, len(pitches))
	for i, m := range pitches {
		delay := 0
		if len(pitches) > 1 {
			delay = int(float64(i) * float64(maxDelay) / float64(len(pitches)-1))
		}
		jobs[i] = noteJob{
			freq:  notes.PitchToFreq(float64(m)),
			delay: delay,
			voice: Voice{
				Pick:       clamp(p.Pick+s.jitter(0.05), 0, 1),
				Decay:      clamp(p.Decay+s.jitter(0.0006), 0.990, 0.9998),
				Damp:       clamp(p.Damp+s.jitter(0.03), 0, 0.95),
				Brightness: clamp(p.Brightness+s.jitter(0.05), 0, 1),
			},
			seed: s.rng.Uint64(),
		}
	}
	return jobs
}

// jitter is uniform in [-r, r)
func (s *Synth) jitter(r float64) float64 {
	return (s.rng.Float64()*2 - 1) * r
}

// soften runs a one-pole low-pass and mixes back a fraction of what it
// removed
func soften(x []float64, a, air float64) {
	prev := 0.0
	for i, v := range x {
		prev = a*prev + (1-a)*v
		x[i] = prev + air*(v-prev)
	}
}

func peakAbs(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}

func chordName(pitches []int) string {
	names := make([]string, len(pitches))
	for i, m := range pitches {
		names[i] = notes.PitchName(m)
	}
	return fmt.Sprint(names)
}
