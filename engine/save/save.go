// Package save implements JSON serialization and deserialization of game state.
package save

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/PtiCalin/simple-game-engine/types"
)

// Record is the JSON-serializable save format.
type Record struct {
	Flags          map[string]bool `json:"flags"`
	Variables      map[string]any  `json:"variables"`
	Inventory      []string        `json:"inventory"`
	CurrentScene   string          `json:"current_scene"`
	Clues          []string        `json:"clues"`
	UnlockedScenes []string        `json:"unlocked_scenes"`
}

// Kind classifies a persistence failure.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindIO
	KindDecode
	KindEncode
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// Error is returned by the file helpers so callers can decide whether a
// failure is worth reporting. A missing save file on first launch usually
// is not.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("save %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a missing-file save error.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindNotFound
}

// Save serializes game state to JSON bytes.
func Save(s *types.State) ([]byte, error) {
	rec := Record{
		Flags:          s.Flags,
		Variables:      encodeVariables(s.Variables),
		Inventory:      s.Inventory,
		CurrentScene:   s.CurrentScene,
		Clues:          s.Clues,
		UnlockedScenes: s.UnlockedScenes,
	}
	return json.MarshalIndent(rec, "", "  ")
}

// Load deserializes JSON bytes into a Record.
func Load(data []byte) (*Record, error) {
	var rec Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after save record")
	}
	// Missing fields default to empty containers.
	if rec.Flags == nil {
		rec.Flags = map[string]bool{}
	}
	if rec.Variables == nil {
		rec.Variables = map[string]any{}
	}
	if rec.Inventory == nil {
		rec.Inventory = []string{}
	}
	if rec.Clues == nil {
		rec.Clues = []string{}
	}
	if rec.UnlockedScenes == nil {
		rec.UnlockedScenes = []string{}
	}
	for k, v := range rec.Variables {
		rec.Variables[k] = decodeNumber(v)
	}
	return &rec, nil
}

// Apply replaces the state wholesale with the record. Nothing is merged.
func Apply(s *types.State, rec *Record) {
	s.Flags = rec.Flags
	s.Variables = rec.Variables
	s.Inventory = rec.Inventory
	s.CurrentScene = rec.CurrentScene
	s.Clues = rec.Clues
	s.UnlockedScenes = rec.UnlockedScenes
}

// WriteFile saves the state to path, creating parent directories.
func WriteFile(path string, s *types.State) error {
	data, err := Save(s)
	if err != nil {
		return &Error{Kind: KindEncode, Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &Error{Kind: KindIO, Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &Error{Kind: KindIO, Path: path, Err: err}
	}
	return nil
}

// ReadFile loads path into s. On any failure s is left untouched.
func ReadFile(path string, s *types.State) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Error{Kind: KindNotFound, Path: path, Err: err}
		}
		return &Error{Kind: KindIO, Path: path, Err: err}
	}
	rec, err := Load(data)
	if err != nil {
		return &Error{Kind: KindDecode, Path: path, Err: err}
	}
	Apply(s, rec)
	return nil
}

// Store persists a state to a fixed path on demand. Failures are logged
// and otherwise dropped: persistence is never fatal to the game.
type Store struct {
	Path   string
	logger *zap.Logger
}

// NewStore creates a store for path. A nil logger disables logging.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{Path: path, logger: logger}
}

// Persist writes s to the store path.
func (st *Store) Persist(s *types.State) {
	if st == nil || st.Path == "" {
		return
	}
	if err := WriteFile(st.Path, s); err != nil {
		st.logger.Warn("persist game state", zap.String("path", st.Path), zap.Error(err))
	}
}

// Restore loads the store path into s. A missing file is not reported.
func (st *Store) Restore(s *types.State) error {
	if st == nil || st.Path == "" {
		return nil
	}
	err := ReadFile(st.Path, s)
	switch {
	case err == nil:
		st.logger.Debug("restored game state", zap.String("path", st.Path))
	case IsNotFound(err):
		st.logger.Debug("no saved game state", zap.String("path", st.Path))
	default:
		st.logger.Warn("restore game state", zap.String("path", st.Path), zap.Error(err))
	}
	return err
}

// encodeVariables writes integral floats with a fraction digit ("2.0") so
// they read back as float64 rather than int. Ints, strings and bools are
// written as is. NaN and infinities cannot be encoded.
func encodeVariables(vars map[string]any) map[string]any {
	if vars == nil {
		return nil
	}
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			v = json.Number(strconv.FormatFloat(f, 'f', 1, 64))
		}
		out[k] = v
	}
	return out
}

// decodeNumber turns a json.Number into int when it has no fraction or
// exponent and fits, and into float64 otherwise. Nested lists and maps are
// converted in place.
func decodeNumber(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			if n >= math.MinInt && n <= math.MaxInt {
				return int(n)
			}
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		for i := range val {
			val[i] = decodeNumber(val[i])
		}
	case map[string]any:
		for k := range val {
			val[k] = decodeNumber(val[k])
		}
	}
	return v
}
