// Package journal stores a played game as zstd-compressed JSON lines: one
// header line naming the starting state, then one line per step with the
// digest of the state it produced. A journal can be re-run and checked later.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"onepersonleft.ai/internal/protocol"
	"onepersonleft.ai/internal/share"
	"onepersonleft.ai/internal/sim/actions"
	"onepersonleft.ai/internal/sim/engine"
	"onepersonleft.ai/internal/sim/model"
)

const FormatVersion = 1

var ErrDigestMismatch = errors.New("journal: digest mismatch")

type Header struct {
	Format int    `json:"format"`
	Seed   string `json:"seed"`
	// Origin is the share token of the starting state when the game did not
	// start fresh from Seed.
	Origin string `json:"origin_token,omitempty"`
}

type Entry struct {
	Step   int                `json:"step"`
	Tick   int                `json:"tick"`
	Action protocol.ActionReq `json:"action"`
	Digest string             `json:"digest"`
}

// HeaderFor describes origin. Fresh states are recorded by seed only.
func HeaderFor(e *engine.Engine, origin model.State) (Header, error) {
	h := Header{Format: FormatVersion, Seed: origin.Seed}
	if engine.Digest(origin) == engine.Digest(e.NewState(origin.Seed)) {
		return h, nil
	}
	tok, err := share.Encode(origin)
	if err != nil {
		return h, fmt.Errorf("journal: origin: %w", err)
	}
	h.Origin = tok
	return h, nil
}

// State rebuilds the starting state h describes.
func (h Header) State(e *engine.Engine) (model.State, error) {
	if h.Origin == "" {
		return e.NewState(h.Seed), nil
	}
	st, err := share.Decode(h.Origin)
	if err != nil {
		return model.State{}, fmt.Errorf("journal: origin: %w", err)
	}
	return st, nil
}

type Writer struct {
	mu   sync.Mutex
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
	step int
}

// Create truncates path and writes the header line.
func Create(path string, h Header) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}
	if err := w.line(h); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Append records a and the state it produced.
func (w *Writer) Append(a actions.Action, after model.State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step++
	return w.line(Entry{
		Step:   w.step,
		Tick:   after.Tick,
		Action: protocol.ActionReqOf(a),
		Digest: engine.Digest(after),
	})
}

func (w *Writer) line(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err1 error
	if w.w != nil {
		err1 = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if err := w.enc.Close(); err1 == nil {
			err1 = err
		}
		w.enc = nil
	}
	if w.f != nil {
		if err := w.f.Close(); err1 == nil {
			err1 = err
		}
		w.f = nil
	}
	return err1
}

// Write records a whole run from origin and returns the final state.
func Write(path string, e *engine.Engine, origin model.State, steps []actions.Action) (model.State, error) {
	h, err := HeaderFor(e, origin)
	if err != nil {
		return model.State{}, err
	}
	w, err := Create(path, h)
	if err != nil {
		return model.State{}, err
	}
	st := origin
	for _, a := range steps {
		st = e.Step(st, a)
		if err := w.Append(a, st); err != nil {
			_ = w.Close()
			return model.State{}, err
		}
	}
	return st, w.Close()
}

func Read(path string) (Header, []Entry, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), share.MaxTokenLen+64*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return h, nil, err
		}
		return h, nil, fmt.Errorf("%s: empty journal", filepath.Base(path))
	}
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil {
		return h, nil, fmt.Errorf("%s: header: %w", filepath.Base(path), err)
	}
	if h.Format != FormatVersion {
		return h, nil, fmt.Errorf("%s: unsupported format %d", filepath.Base(path), h.Format)
	}

	var entries []Entry
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return h, nil, fmt.Errorf("%s: step %d: %w", filepath.Base(path), len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return h, nil, err
	}
	return h, entries, nil
}

// Verify re-runs entries from the header's origin and checks every digest.
// It returns the final state and how many steps matched.
func Verify(e *engine.Engine, h Header, entries []Entry) (model.State, int, error) {
	st, err := h.State(e)
	if err != nil {
		return model.State{}, 0, err
	}
	for i, ent := range entries {
		if ent.Step != i+1 {
			return st, i, fmt.Errorf("journal: step out of order: want=%d got=%d", i+1, ent.Step)
		}
		a, err := ent.Action.ToAction()
		if err != nil {
			return st, i, fmt.Errorf("journal: step %d: %w", ent.Step, err)
		}
		st = e.Step(st, a)
		if got := engine.Digest(st); got != ent.Digest || st.Tick != ent.Tick {
			return st, i, fmt.Errorf("%w at step %d (tick %d): got=%s want=%s", ErrDigestMismatch, ent.Step, st.Tick, got, ent.Digest)
		}
	}
	return st, len(entries), nil
}
