package agent

import (
	"context"
	"fmt"
	"io"

	"github.com/effective-security/agentcore/pkg/llmutils"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// PrinterCallback prints the tool events to the Writer.
type PrinterCallback struct {
	Out io.Writer
}

// NewPrinterCallback returns a PrinterCallback.
func NewPrinterCallback(out io.Writer) *PrinterCallback {
	return &PrinterCallback{Out: out}
}

var _ tools.Callback = (*PrinterCallback)(nil)

func (l *PrinterCallback) OnToolStart(_ context.Context, tool tools.ITool, input string) {
	fmt.Fprintf(l.Out, "Tool #%s: %s\n", tool.Name(), llmutils.StripComments(input))
}

func (l *PrinterCallback) OnToolEnd(_ context.Context, tool tools.ITool, _ string, output string) {
	fmt.Fprintf(l.Out, "Tool #%s: %d bytes\n", tool.Name(), len(output))
}

func (l *PrinterCallback) OnToolError(_ context.Context, tool tools.ITool, _ string, err error) {
	fmt.Fprintf(l.Out, "Tool #%s error: %s\n", tool.Name(), err.Error())
}

// LoggerCallback logs the tool events.
type LoggerCallback struct {
	logger *xlog.PackageLogger
}

// NewLoggerCallback returns a LoggerCallback.
func NewLoggerCallback(logger *xlog.PackageLogger) *LoggerCallback {
	return &LoggerCallback{logger: logger}
}

var _ tools.Callback = (*LoggerCallback)(nil)

func (l *LoggerCallback) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"input", slices.StringUpto(input, 256),
	)
}

func (l *LoggerCallback) OnToolEnd(ctx context.Context, tool tools.ITool, _ string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"output", slices.StringUpto(output, 256),
	)
}

func (l *LoggerCallback) OnToolError(ctx context.Context, tool tools.ITool, _ string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"err", err.Error(),
	)
}
