// Package accesslog writes one line per HTTP request served by the API and status servers
package accesslog

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type AccessLogger interface {
	Log(ctx context.Context, entry *Entry)
}

type Options struct {
	File    string
	Format  string
	Colored bool
	// Writer overrides File when set
	Writer io.Writer
}

type logger struct {
	zl      zerolog.Logger
	format  Format
	colored bool
}

func NewAccessLogger(name string, opts Options) (AccessLogger, error) {
	writer, err := openWriter(opts)
	if err != nil {
		return nil, err
	}

	switch Format(opts.Format) {
	case FormatJSON:
		zl := zerolog.New(writer).With().Str("name", name).Logger()
		return &logger{zl: zl, format: FormatJSON}, nil
	case FormatText:
		out := zerolog.ConsoleWriter{
			Out:           writer,
			NoColor:       !opts.Colored,
			TimeFormat:    time.RFC3339,
			PartsOrder:    []string{zerolog.TimestampFieldName, "name", zerolog.MessageFieldName},
			FieldsExclude: []string{"name"},
		}
		out.FormatLevel = func(i interface{}) string { return "" }
		zl := zerolog.New(out).With().Str("name", "["+name+"]").Logger()
		return &logger{zl: zl, format: FormatText, colored: opts.Colored}, nil
	default:
		return nil, errors.New("invalid format: " + opts.Format)
	}
}

func openWriter(opts Options) (io.Writer, error) {
	if opts.Writer != nil {
		return opts.Writer, nil
	}
	switch opts.File {
	case "":
		return nil, errors.New("accesslog file is required")
	case "/dev/stdout":
		return os.Stdout, nil
	case "/dev/stderr":
		return os.Stderr, nil
	}
	return os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
}

func (l *logger) Log(ctx context.Context, entry *Entry) {
	event := l.zl.Log().Ctx(ctx).Timestamp()
	if l.format == FormatJSON {
		event.EmbedObject(entry).Send()
		return
	}
	event.Msg(entry.format(l.colored))
}
