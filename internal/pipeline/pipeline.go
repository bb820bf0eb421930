package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Zuo-Peng/rec2csv/internal/emit"
	"github.com/Zuo-Peng/rec2csv/internal/parse"
	"github.com/Zuo-Peng/rec2csv/internal/scan"
)

// Sink receives one parse result per chunk, in source order.
type Sink interface {
	Write(res parse.Result) error
	Flush() error
}

type Stats struct {
	Records    int // parsed successfully
	Numbers    int
	Strings    int
	Errors     int // rejected chunks
	Incomplete int // rejected chunks that had no "%" line
}

func (s Stats) String() string {
	return fmt.Sprintf("records=%d numbers=%d strings=%d errors=%d incomplete=%d",
		s.Records, s.Numbers, s.Strings, s.Errors, s.Incomplete)
}

// Run feeds every chunk of r through the parser into sink, one at a time.
// Rejected chunks go to the sink as errors and scanning continues; read and
// write failures abort the run. The sink is flushed before Run returns.
func Run(r io.Reader, sink Sink, logger *slog.Logger) (stats Stats, err error) {
	defer func() {
		if ferr := sink.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("flush: %w", ferr)
		}
	}()

	sc := scan.NewScanner(r)
	for {
		chunk, err := sc.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		res := parse.ParseChunk(chunk.Text, chunk.Line)
		if res.OK() && !chunk.Complete {
			res = parse.Unterminated(chunk.Text, chunk.Line)
		}
		if res.Err != nil {
			stats.Errors++
			if !chunk.Complete {
				stats.Incomplete++
			}
			logger.Debug("record rejected",
				"line", chunk.Line,
				"context", res.Err.Context(),
				"message", res.Err.Message,
				"complete", chunk.Complete)
		} else {
			stats.Records++
			for _, f := range res.Record.Fields {
				if f.Value.Kind == parse.KindStr {
					stats.Strings++
				} else {
					stats.Numbers++
				}
			}
		}

		if err := sink.Write(res); err != nil {
			return stats, err
		}
	}
}

// ErrUsage is returned for a wrong number of positional arguments.
var ErrUsage = errors.New("usage: rec2csv <source> <numbers.csv> <strings.csv> <errors.log>")

// Paths names the source and the three outputs of a conversion.
type Paths struct {
	Source  string
	Numbers string
	Strings string
	Errors  string
}

func PathsFromArgs(args []string) (Paths, error) {
	if len(args) != 4 {
		return Paths{}, ErrUsage
	}
	return Paths{Source: args[0], Numbers: args[1], Strings: args[2], Errors: args[3]}, nil
}

// Convert runs the CSV conversion. The outputs are created before any record
// is read and must not exist yet.
func Convert(p Paths, logger *slog.Logger) (Stats, error) {
	src, err := os.Open(p.Source)
	if err != nil {
		return Stats{}, fmt.Errorf("open source %s: %w", p.Source, err)
	}
	defer src.Close()

	files, err := emit.CreateSinks(p.Numbers, p.Strings, p.Errors)
	if err != nil {
		return Stats{}, err
	}

	em, err := emit.New(files.Numbers, files.Strings, files.Errors)
	if err != nil {
		files.Close()
		return Stats{}, err
	}

	logger.Info("converting", "source", p.Source)
	stats, err := Run(src, em, logger)
	if cerr := files.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close outputs: %w", cerr)
	}
	if err != nil {
		return stats, err
	}
	logger.Info("converted", "source", p.Source, "stats", stats.String())
	return stats, nil
}
