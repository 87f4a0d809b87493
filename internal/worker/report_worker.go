package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"rcrao/internal/amqp"
	"rcrao/internal/composer"
	"rcrao/internal/log"
	"rcrao/internal/middleware/trace"
	"rcrao/internal/services"
)

// Generator produces report documents.
type Generator interface {
	Generate(ctx context.Context, req services.Request) (*composer.Output, error)
}

// ReportWorker turns queued report requests into files in an output directory
type ReportWorker struct {
	generator Generator
	outputDir string
	logger    *log.StructuredLogger
}

func NewReportWorker(generator Generator, outputDir string) *ReportWorker {
	return &ReportWorker{
		generator: generator,
		outputDir: outputDir,
		logger: log.NewStructuredLogger(log.New(log.Config{
			Component: log.ComponentWorker,
			Handler:   slog.Default().Handler(),
		})),
	}
}

// HandleRequest processes a single report request message from AMQP.
//
// Requests that can never succeed are dropped; everything else is returned
// so the broker redelivers the message.
func (w *ReportWorker) HandleRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	start := time.Now()
	ctx = trace.WithRequestID(ctx, msg.ID)
	slog.InfoContext(ctx, "Processing report request",
		"id", msg.ID,
		"category", msg.Category,
		"period_kind", msg.PeriodKind,
		"selector", msg.Selector)

	out, err := w.generator.Generate(ctx, services.Request{
		ID:          msg.ID,
		Category:    msg.Category,
		PeriodKind:  msg.PeriodKind,
		Selector:    msg.Selector,
		GeneratedBy: msg.GeneratedBy,
	})
	if err != nil {
		switch services.StatusFor(err) {
		case services.StatusInvalidInput, services.StatusLayout:
			w.logger.LogError(ctx, "Dropping report request that cannot succeed", err, log.OpGenerate,
				log.NewFields().WithRequestID(msg.ID).WithReport(msg.Category, msg.PeriodKind, msg.Selector))
			return amqp.Drop(err)
		}
		return fmt.Errorf("generate report: %w", err)
	}

	path, err := WriteReport(w.outputDir, out)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	w.logger.LogReportGenerated(ctx, msg.Category, msg.PeriodKind, msg.Selector, path, len(out.Bytes), time.Since(start))
	return nil
}

// WriteReport stores the document in dir under its suggested filename and
// returns the final path. The bytes go to a temporary file first so readers
// never see a partial report.
func WriteReport(dir string, out *composer.Output) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	final := filepath.Join(dir, filepath.Base(out.Filename))
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(out.Bytes); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("rename into place: %w", err)
	}
	return final, nil
}
