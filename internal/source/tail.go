package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/livp123/firesense/internal/normalizer"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
	"github.com/nxadm/tail"
)

// TailOptions controls the CSV file follower.
type TailOptions struct {
	Path      string
	FromStart bool
	// Poll disables inotify, for filesystems that do not support it.
	Poll  bool
	Count int
}

// TailSource follows a CSV file of readings, surviving rotation.
// TailSource 跟踪读数 CSV 文件，支持日志轮转。
type TailSource struct {
	opts    TailOptions
	t       *tail.Tail
	label   string
	emitted int
}

// NewTailSource starts following opts.Path.
// NewTailSource 开始跟踪 opts.Path。
func NewTailSource(opts TailOptions) (*TailSource, error) {
	if opts.Path == "" {
		return nil, fserrors.NewConfigError("source.path", "")
	}
	location := &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	if opts.FromStart {
		location = &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}
	}

	t, err := tail.TailFile(opts.Path, tail.Config{
		Location:  location,
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      opts.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to tail %s: %w", opts.Path, err)
	}
	return &TailSource{opts: opts, t: t, label: filepath.Base(opts.Path)}, nil
}

func (s *TailSource) Name() string { return "tail:" + s.opts.Path }

// Next blocks until a well-formed line arrives. Malformed lines are logged
// and skipped.
// Next 阻塞直到读到格式正确的行，格式错误的行会被记录并跳过。
func (s *TailSource) Next(ctx context.Context) (Sample, error) {
	if s.opts.Count > 0 && s.emitted >= s.opts.Count {
		return Sample{}, io.EOF
	}
	log := logger.Get(ctx)
	for {
		select {
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		case line, ok := <-s.t.Lines:
			if !ok {
				return Sample{}, io.EOF
			}
			if line.Err != nil {
				log.Warnf("[WARN]  Error reading %s: %v", s.opts.Path, line.Err)
				continue
			}
			sample, err := ParseLine(line.Text, s.label)
			if errors.Is(err, errSkip) {
				continue
			}
			if err != nil {
				log.Warnf("[WARN]  Skipping reading: %v", err)
				continue
			}
			sample.Time = line.Time
			if sample.Time.IsZero() {
				sample.Time = time.Now()
			}
			s.emitted++
			return sample, nil
		}
	}
}

// Close stops following the file.
func (s *TailSource) Close() error {
	err := s.t.Stop()
	s.t.Cleanup()
	return err
}

var errSkip = errors.New("skip line")

// ParseLine parses "temperature,humidity,co2,hydrogen,pressure[,label]".
// Blank lines and lines starting with # yield errSkip.
// ParseLine 解析一行 CSV 读数。
func ParseLine(text, defaultLabel string) (Sample, error) {
	line := strings.TrimSpace(text)
	if line == "" || strings.HasPrefix(line, "#") {
		return Sample{}, errSkip
	}
	fields := strings.Split(line, ",")
	if len(fields) != normalizer.NumFeatures && len(fields) != normalizer.NumFeatures+1 {
		return Sample{}, fserrors.NewReadingError(line, fmt.Errorf("expected %d or %d fields, got %d",
			normalizer.NumFeatures, normalizer.NumFeatures+1, len(fields)))
	}

	var v normalizer.FeatureVector
	for i := 0; i < normalizer.NumFeatures; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return Sample{}, fserrors.NewReadingError(line, fmt.Errorf("%s: %w", normalizer.Feature(i), err))
		}
		v[i] = f
	}
	if !v.Finite() {
		return Sample{}, fserrors.NewReadingError(line, errors.New("non-finite value"))
	}

	label := defaultLabel
	if len(fields) > normalizer.NumFeatures {
		if l := strings.TrimSpace(fields[normalizer.NumFeatures]); l != "" {
			label = l
		}
	}
	return Sample{Label: label, Readings: v}, nil
}
