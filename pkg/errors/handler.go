// Package errors is the anti-crash layer of the bot.
// It recovers panics in handlers and goroutines, counts them, and shuts the
// process down when too many pile up inside one window.
package errors

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/PancyStudios/PancyModGo/pkg/webhook"
)

// ErrorHandler counts recovered errors per window and trips once the count
// passes limit
type ErrorHandler struct {
	count    atomic.Int32
	limit    int32
	window   time.Duration
	webhook  string
	shutdown func()
	panics   func()

	trip     sync.Once
	stop     chan struct{}
	stopOnce sync.Once
}

// ReportErrorOptions is the content of a webhook error report
type ReportErrorOptions struct {
	Error   string
	Message string
}

var handler *ErrorHandler

// Init installs the handler used by RecoverMiddleware and starts its window.
// Only the first call has effect.
func Init(webhookURL string, shutdown func()) *ErrorHandler {
	if handler == nil {
		h := NewErrorHandler(webhookURL, shutdown)
		h.panics = metrics.Default().Panics.Inc
		h.start()
		handler = h
	}
	return handler
}

// NewErrorHandler allows 15 errors per 5 second window
func NewErrorHandler(webhookURL string, shutdown func()) *ErrorHandler {
	return &ErrorHandler{
		limit:    15,
		window:   5 * time.Second,
		webhook:  webhookURL,
		shutdown: shutdown,
		panics:   func() {},
		stop:     make(chan struct{}),
	}
}

func (h *ErrorHandler) start() {
	go func() {
		t := time.NewTicker(h.window)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				h.count.Store(0)
			case <-h.stop:
				return
			}
		}
	}()
}

// Stop ends the window goroutine
func (h *ErrorHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// IncrementError records one error and trips the handler past the limit
func (h *ErrorHandler) IncrementError() int32 {
	n := h.count.Add(1)
	logger.Error(fmt.Sprintf("Errores en la ventana actual: %d/%d", n, h.limit), "AntiCrash")
	if n > h.limit {
		h.trip.Do(func() { go h.tripped() })
	}
	return n
}

func (h *ErrorHandler) tripped() {
	start := time.Now()
	logger.Critical("Demasiados errores seguidos, apagando el bot", "AntiCrash")
	h.Report(ReportErrorOptions{
		Error:   "Crítico",
		Message: fmt.Sprintf("Más de %d errores en %s. Apagando...", h.limit, h.window),
	})
	if h.shutdown != nil {
		h.shutdown()
	}
	logger.Warn(fmt.Sprintf("Apagado completado en %v", time.Since(start)), "AntiCrash")
}

// HandlePanic records a recovered panic with its stack
func (h *ErrorHandler) HandlePanic(recovered interface{}) {
	h.panics()
	logger.Error(fmt.Sprintf("Panic recuperado: %v\n%s", recovered, debug.Stack()), "AntiCrash")
	h.IncrementError()
}

// Report posts an error embed to the error webhook, if one is configured
func (h *ErrorHandler) Report(data ReportErrorOptions) {
	if h.webhook == "" {
		return
	}
	embed := webhook.Embed("Error "+data.Error, data.Message, 0xFF0000)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webhook.Post(ctx, nil, h.webhook, embed); err != nil {
		logger.Error("No se pudo enviar el reporte de error: "+err.Error(), "AntiCrash")
	}
}

// RecoverMiddleware returns a recovery function for use in deferred calls:
//
//	defer errors.RecoverMiddleware()()
func RecoverMiddleware() func() {
	return func() {
		r := recover()
		if r == nil {
			return
		}
		if handler != nil {
			handler.HandlePanic(r)
			return
		}
		logger.Error(fmt.Sprintf("Panic recuperado sin handler: %v", r), "AntiCrash")
	}
}

// Go runs fn in a new goroutine guarded by RecoverMiddleware
func Go(fn func()) {
	go func() {
		defer RecoverMiddleware()()
		fn()
	}()
}
