package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT or SIGTERM and tells the
// user what happened to their work.
type InterruptHandler struct {
	writer      io.Writer
	message     string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer}
}

// HandleInterrupts returns a context canceled on the first interrupt.
// message, if not empty, is shown below the interrupt notice.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, message string) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.message = message

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			h.markInterrupted()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) markInterrupted() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.interrupted {
		return
	}
	h.interrupted = true
	h.showInterruptMessage()
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Interrupted!")
	if h.message != "" {
		msg += "\n" + FormatInfo(h.message)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
