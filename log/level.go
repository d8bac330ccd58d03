package log

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"
)

// A Level is the importance or severity of a log event. The higher the
// level, the more important or severe the event. The zero value is
// [LevelInfo], matching [slog.Level].
type Level slog.Level

// Names for common levels.
const (
	LevelDebug    = Level(slog.LevelDebug)
	LevelInfo     = Level(slog.LevelInfo)
	LevelWarn     = Level(slog.LevelWarn)
	LevelError    = Level(slog.LevelError)
	LevelDisabled = Level(1<<31 - 1)
)

// String returns a name for the level in uppercase. If the level is
// between named values, an integer is appended to the uppercased name.
func (l Level) String() string {
	if l >= LevelDisabled {
		return "DISABLED"
	}

	return slog.Level(l).String()
}

// MarshalText implements [encoding.TextMarshaler] by calling [Level.String].
func (l Level) MarshalText() ([]byte, error) {
	return append([]byte(nil), l.String()...), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler]. It accepts any
// string produced by [Level.MarshalText], ignoring case, as well as the
// values "disable", "disabled", and "false" for [LevelDisabled].
func (l *Level) UnmarshalText(data []byte) (err error) {
	switch string(bytes.ToLower(data)) {
	case "disable", "disabled", "false":
		*l = LevelDisabled
	default:
		err = (*slog.Level)(l).UnmarshalText(data)
	}

	return
}

// MarshalJSON implements [encoding/json.Marshaler] by quoting the output
// of [Level.String].
func (l Level) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, l.String()), nil
}

// UnmarshalJSON implements [encoding/json.Unmarshaler]. It accepts any
// string accepted by [Level.UnmarshalText].
func (l *Level) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}

// UnmarshalYAML implements [yaml.Unmarshaler] via [Level.UnmarshalText].
func (l *Level) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}

// MarshalYAML implements [yaml.Marshaler].
func (l Level) MarshalYAML() (any, error) {
	return strings.ToLower(l.String()), nil
}

// Level returns the receiver. It implements [slog.Leveler].
func (l Level) Level() slog.Level { return slog.Level(l) }
