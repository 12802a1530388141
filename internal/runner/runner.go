// Package runner drives one mentor-chat turn: it posts the user message to
// the assistant service, polls the resulting run, dispatches requested tool
// calls to the tool runner, and returns the assistant's reply.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mentord/internal/assistant"
	"mentord/internal/retry"
	"mentord/internal/toolrunner"
	"mentord/pkg/logger"
)

// AssistantService is the subset of the assistant client the runner uses.
type AssistantService interface {
	CreateThread(ctx context.Context) (*assistant.Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (*assistant.Message, error)
	CreateRun(ctx context.Context, threadID string) (*assistant.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*assistant.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) (*assistant.Run, error)
	ListMessages(ctx context.Context, threadID string, limit int, order string) (*assistant.MessageList, error)
}

// ToolDispatcher executes one tool call against the tool runner.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
}

// Config holds the runner's polling and retry settings.
type Config struct {
	// PollInterval is the base delay between run-status polls.
	PollInterval time.Duration
	// MaxPollInterval caps the adaptive polling delay.
	MaxPollInterval time.Duration
	// Retry wraps every assistant-service call.
	Retry retry.Policy
}

// TurnResult is the displayable outcome of one chat turn.
type TurnResult struct {
	ThreadID string `json:"thread_id"`
	Text     string `json:"text"`
}

// Runner orchestrates chat turns. Each RunTurn call is independent; callers
// must serialize turns on a single thread (the assistant service rejects
// overlapping runs, which surfaces here as an error).
type Runner struct {
	svc   AssistantService
	tools ToolDispatcher
	cfg   Config
}

// New creates a turn runner.
func New(svc AssistantService, tools ToolDispatcher, cfg Config) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 750 * time.Millisecond
	}
	if cfg.MaxPollInterval <= 0 {
		cfg.MaxPollInterval = 3 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	return &Runner{svc: svc, tools: tools, cfg: cfg}
}

// RunTurn executes one user-message turn. threadID may be empty, in which
// case a new thread is created; the returned result carries the thread id to
// supply on the next turn.
//
// Transport and tool-dispatch failures are returned as errors. Terminal run
// failures (failed/cancelled/expired) are NOT errors: they are formatted into
// the result text, because the caller is a chat surface that always needs
// something displayable.
func (r *Runner) RunTurn(ctx context.Context, threadID, userText string) (*TurnResult, error) {
	if threadID == "" {
		thread, err := retry.Value(ctx, r.cfg.Retry, func() (*assistant.Thread, error) {
			return r.svc.CreateThread(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("create thread: %w", err)
		}
		threadID = thread.ID
	}

	if _, err := retry.Value(ctx, r.cfg.Retry, func() (*assistant.Message, error) {
		return r.svc.CreateMessage(ctx, threadID, "user", userText)
	}); err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}

	run, err := retry.Value(ctx, r.cfg.Retry, func() (*assistant.Run, error) {
		return r.svc.CreateRun(ctx, threadID)
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	interval := r.cfg.PollInterval

	for {
		run, err = retry.Value(ctx, r.cfg.Retry, func() (*assistant.Run, error) {
			return r.svc.RetrieveRun(ctx, threadID, run.ID)
		})
		if err != nil {
			return nil, fmt.Errorf("retrieve run: %w", err)
		}

		switch run.Status {
		case assistant.StatusRequiresAction:
			if err := r.handleRequiredAction(ctx, threadID, run, userText); err != nil {
				return nil, err
			}
			// Poll again immediately; the run usually resumes fast after
			// tool outputs land.
			interval = r.cfg.PollInterval
			continue

		case assistant.StatusCompleted:
			text, err := r.latestMessageText(ctx, threadID)
			if err != nil {
				return nil, err
			}
			return &TurnResult{ThreadID: threadID, Text: text}, nil

		case assistant.StatusFailed, assistant.StatusCancelled, assistant.StatusExpired:
			return &TurnResult{ThreadID: threadID, Text: terminalFailureText(run)}, nil

		default:
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
			interval = interval * 3 / 2
			if interval > r.cfg.MaxPollInterval {
				interval = r.cfg.MaxPollInterval
			}
		}
	}
}

// handleRequiredAction dispatches all pending tool calls concurrently and
// submits the collected outputs in one batch. One failed dispatch aborts the
// whole batch: nothing is submitted and the first failure propagates.
func (r *Runner) handleRequiredAction(ctx context.Context, threadID string, run *assistant.Run, userText string) error {
	calls := run.PendingToolCalls()
	outputs := make([]assistant.ToolOutput, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, tc := range calls {
		i, tc := i, tc
		g.Go(func() error {
			args := decodeToolArgs(tc)
			normalized := toolrunner.Normalize(tc.Function.Name, args, userText)

			result, err := r.tools.Dispatch(gctx, tc.Function.Name, normalized)
			if err != nil {
				return fmt.Errorf("tool %s: %w", tc.Function.Name, err)
			}

			outputs[i] = assistant.ToolOutput{
				ToolCallID: tc.ID,
				Output:     string(result),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if _, err := retry.Value(ctx, r.cfg.Retry, func() (*assistant.Run, error) {
		return r.svc.SubmitToolOutputs(ctx, threadID, run.ID, outputs)
	}); err != nil {
		return fmt.Errorf("submit tool outputs: %w", err)
	}

	logger.Debug().
		Str("run_id", run.ID).
		Int("tool_calls", len(calls)).
		Msg("submitted tool outputs")

	return nil
}

// decodeToolArgs parses the call's JSON argument blob. Malformed arguments
// fall back to an empty map so per-tool defaults still apply.
func decodeToolArgs(tc assistant.ToolCall) map[string]any {
	args := map[string]any{}
	raw := tc.Function.Arguments
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		logger.Warn().
			Str("tool", tc.Function.Name).
			Str("arguments", raw).
			Msg("tool arguments are not valid JSON, using defaults")
		return map[string]any{}
	}
	return args
}

// latestMessageText fetches the newest message on the thread and extracts
// its text content, or "" when the content is not text.
func (r *Runner) latestMessageText(ctx context.Context, threadID string) (string, error) {
	list, err := retry.Value(ctx, r.cfg.Retry, func() (*assistant.MessageList, error) {
		return r.svc.ListMessages(ctx, threadID, 1, "desc")
	})
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	if len(list.Data) == 0 {
		return "", nil
	}
	return list.Data[0].TextValue(), nil
}

// terminalFailureText formats a failed/cancelled/expired run into a
// conversational reply instead of an error.
func terminalFailureText(run *assistant.Run) string {
	code := "no_code"
	msg := "Unknown error"
	if run.LastError != nil {
		if run.LastError.Code != "" {
			code = run.LastError.Code
		}
		if run.LastError.Message != "" {
			msg = run.LastError.Message
		}
	}
	return fmt.Sprintf("⚠️ Assistant run ended with status: %s\nError code: %s\nDetails: %s",
		run.Status, code, msg)
}
