package log

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006/01/02 15:04:05.000"

func newEncoder(cfg *modules.LogConfig) (zapcore.Encoder, error) {
	switch cfg.Format {
	case modules.LogFormatText:
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(fmt.Sprintf("%-10s", "["+name+"]"))
		}
		ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(utils.Colorize(t.Format(timeLayout), utils.ColorDarkGray, cfg.Colored))
		}
		if cfg.Colored {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(ec), nil
	case modules.LogFormatJson:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		ec.EncodeDuration = zapcore.MillisDurationEncoder
		return zapcore.NewJSONEncoder(ec), nil
	}
	return nil, fmt.Errorf("invalid format: %s", cfg.Format)
}

// NewZapLogger builds the process logger. Static fields from the
// configuration are attached to every entry.
func NewZapLogger(cfg *modules.LogConfig) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(string(cfg.Level))
	if err != nil {
		return nil, err
	}
	encoder, err := newEncoder(cfg)
	if err != nil {
		return nil, err
	}
	sink, _, err := zap.Open(utils.DefaultIfZero(cfg.File, "/dev/stdout"))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(cfg.Fields))
	for k := range cfg.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.String(k, cfg.Fields[k]))
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, level),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
		zap.Fields(fields...),
	)
	return logger.Sugar(), nil
}
