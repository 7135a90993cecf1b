package notify

import (
	"context"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// Alert is one company's detection, handed to every sink.
type Alert struct {
	Company    string
	DetectedAt time.Time
	Leaks      []*model.LeakRecord
}

// Sink delivers an alert through one channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}
