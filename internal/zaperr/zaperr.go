// Package zaperr implements a structured error type carrying zap-style
// key/value pairs, so an error raised while skipping a bad import item
// (internal/importer) can hand its context to a zap logger without the
// caller re-deriving the fields from the error message.
package zaperr

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Error is the structured error type. Exported so zap's field helpers,
// which only accept concrete marshalable types, can take it directly.
type Error struct {
	msg  string
	args []interface{}
}

func (e Error) Error() string {
	return e.msg
}

// Errorw builds an Error from a message and a flat key/value list. A
// caller passes it to zap.Any so the pairs are expanded as nested fields
// rather than flattened into the message string.
func Errorw(msg string, args ...interface{}) Error {
	return Error{msg: msg, args: args}
}

// MarshalLogObject implements zapcore.ObjectMarshaler: it walks args two
// at a time, treating each pair as a field name and value (a zapcore.Field
// is added as-is and takes one slot). A pair with a non-string key is
// collected under an "invalid" array, and a dangling final value is logged
// under the key "ignored", so neither is dropped silently.
func (e Error) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.msg)

	var bad invalidPairs
	pos := 0
	for pos < len(e.args) {
		if field, ok := e.args[pos].(zapcore.Field); ok {
			field.AddTo(enc)
			pos++
			continue
		}
		if pos == len(e.args)-1 {
			zap.Any("ignored", e.args[pos]).AddTo(enc)
			break
		}
		key, val := e.args[pos], e.args[pos+1]
		keyStr, ok := key.(string)
		if !ok {
			bad = append(bad, invalidPair{pos, key, val})
			pos += 2
			continue
		}
		zap.Any(keyStr, val).AddTo(enc)
		pos += 2
	}

	if len(bad) > 0 {
		zap.Array("invalid", bad).AddTo(enc)
	}
	return nil
}

// invalidPair records one (key, value) entry from Errorw's arg list that
// couldn't be turned into a field, so the logged output still shows what
// was passed instead of silently eating it.
type invalidPair struct {
	position   int
	key, value interface{}
}

func (p invalidPair) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("position", int64(p.position))
	zap.Any("key", p.key).AddTo(enc)
	zap.Any("value", p.value).AddTo(enc)
	return nil
}

type invalidPairs []invalidPair

func (ps invalidPairs) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for i := range ps {
		enc.AppendObject(ps[i])
	}
	return nil
}
