package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"founder-connect/internal/logger"

	"go.uber.org/zap"
)

const maxProcessOutput = 1 << 20

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// ProcessCollaborator runs the collaborator script once per call, reading a
// single JSON document from stdout.
type ProcessCollaborator struct {
	interpreter string
	script      string
	timeout     time.Duration
	logger      *zap.Logger
	command     commandFunc
}

func NewProcessCollaborator(interpreter, script string, timeout time.Duration, l *zap.Logger) (*ProcessCollaborator, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil, errors.New("outreach script is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ProcessCollaborator{
		interpreter: strings.TrimSpace(interpreter),
		script:      script,
		timeout:     timeout,
		logger:      logger.OrNop(l),
		command:     exec.CommandContext,
	}, nil
}

func (p *ProcessCollaborator) SearchEmails(ctx context.Context, topic string, limit int) ([]string, error) {
	var out searchResponse
	if err := p.run(ctx, &out, "search", "--topic", topic, "--max", strconv.Itoa(limit)); err != nil {
		return nil, err
	}
	if len(out.Emails) == 0 {
		return nil, ErrEmptyResult
	}
	return out.Emails, nil
}

func (p *ProcessCollaborator) DraftEmail(ctx context.Context, in DraftRequest) (Draft, error) {
	var out Draft
	if err := p.run(ctx, &out, "draft", "--topic", in.Topic, "--summary", in.Summary, "--from-name", in.FromName); err != nil {
		return Draft{}, err
	}
	if strings.TrimSpace(out.Body) == "" {
		return Draft{}, ErrEmptyResult
	}
	return out, nil
}

func (p *ProcessCollaborator) run(ctx context.Context, out any, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	name := p.script
	argv := args
	if p.interpreter != "" {
		name = p.interpreter
		argv = append([]string{p.script}, args...)
	}

	cmd := p.command(ctx, name, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedBuffer{buf: &stdout, limit: maxProcessOutput}
	cmd.Stderr = &limitedBuffer{buf: &stderr, limit: 4096}

	start := time.Now()
	err := cmd.Run()
	p.logger.Debug("outreach collaborator finished",
		zap.String("action", args[0]),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("outreach %s: %w", args[0], ctx.Err())
		}
		return fmt.Errorf("outreach %s: %w: %s", args[0], err, logger.TruncateForLog(stderr.String(), 300))
	}

	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), out); err != nil {
		return fmt.Errorf("outreach %s: decode output: %w", args[0], err)
	}
	return nil
}

type limitedBuffer struct {
	buf   *bytes.Buffer
	limit int
}

// Write discards bytes past the limit but reports them as written so the
// child process is not blocked.
func (l *limitedBuffer) Write(p []byte) (int, error) {
	if room := l.limit - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}

var _ Collaborator = (*ProcessCollaborator)(nil)
