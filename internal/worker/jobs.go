package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Job types carried in JobMessage.JobType.
const (
	JobTypeRiskImport  = "risk_import"
	JobTypeHealthCheck = "health_check"
)

// ErrDiscard marks a message that can never succeed and should not be redelivered.
var ErrDiscard = errors.New("message discarded")

// JobMessage is the payload published to the job subscription.
type JobMessage struct {
	JobType    string `json:"job_type"`
	SourcePath string `json:"source_path,omitempty"`
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Processor runs the job described by a message payload.
type Processor struct {
	importJob *RiskImportJob
	db        Pinger
	timeout   time.Duration
	logger    zerolog.Logger
}

// ProcessorConfig holds configuration for creating a Processor.
type ProcessorConfig struct {
	ImportJob *RiskImportJob
	DB        Pinger
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// NewProcessor creates a job processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().JobTimeout
	}
	return &Processor{
		importJob: cfg.ImportJob,
		db:        cfg.DB,
		timeout:   timeout,
		logger:    cfg.Logger,
	}
}

// Process decodes data and runs the job. Errors wrapping ErrDiscard should be acked;
// any other error is transient and the message should be redelivered.
func (p *Processor) Process(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: decode job: %v", ErrDiscard, err) //nolint:errorlint // only ErrDiscard is matched
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	switch msg.JobType {
	case JobTypeRiskImport:
		return p.riskImport(ctx, msg)
	case JobTypeHealthCheck:
		return p.healthCheck(ctx)
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrDiscard, msg.JobType)
	}
}

func (p *Processor) riskImport(ctx context.Context, msg JobMessage) error {
	if p.importJob == nil {
		return fmt.Errorf("%w: risk import is not configured", ErrDiscard)
	}
	p.logger.Info().Str("source", msg.SourcePath).Msg("starting risk import")

	result, err := p.importJob.Run(ctx, msg.SourcePath)
	if err != nil {
		if isPermanent(err) {
			return fmt.Errorf("%w: %v", ErrDiscard, err) //nolint:errorlint // only ErrDiscard is matched
		}
		return err
	}

	p.logger.Info().
		Str("source", result.Source).
		Int64("rows", result.Rows).
		Dur("duration", result.Duration).
		Msg("risk import completed")
	return nil
}

func (p *Processor) healthCheck(ctx context.Context) error {
	if p.db == nil {
		p.logger.Debug().Msg("health check passed without database")
		return nil
	}
	if err := p.db.Ping(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	p.logger.Debug().Msg("health check passed")
	return nil
}

// isPermanent reports whether an import failure is caused by the input rather than
// by the store, so retrying the same message cannot help.
func isPermanent(err error) bool {
	var perr *parseError
	return errors.Is(err, ErrMissingSource) || errors.As(err, &perr)
}
