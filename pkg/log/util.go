package log

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// toFields turns the key/value list of a log call into zap fields.
//
// joynode logs mostly strings, counters, durations and wire payloads, so only
// those get a typed field. A bare error becomes "error", a zap.Field passes
// through, and anything that cannot be paired is kept under a positional key.
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(fmt.Sprintf("arg#%d", i), args[i]))
			break
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("arg#%d", i)
		}
		fields = append(fields, field(key, args[i+1]))
		i += 2
	}

	return fields
}

func field(key string, val any) zap.Field {
	switch v := val.(type) {
	case string:
		return zap.String(key, v)
	case []byte:
		// Request and response payloads are HTTP text.
		return zap.ByteString(key, v)
	case time.Duration:
		return zap.Duration(key, v)
	case error:
		return zap.NamedError(key, v)
	case fmt.Stringer:
		return zap.Stringer(key, v)
	default:
		return zap.Any(key, v)
	}
}
