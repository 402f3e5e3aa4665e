package use_case

import (
	"github.com/trunov/stickerbot/internal/cleanup"
	"github.com/trunov/stickerbot/internal/entities"
	"github.com/trunov/stickerbot/internal/failure"
)

type State string

const (
	StateIdle             State = "idle"
	StateIgnored          State = "ignored"
	StateDownloading      State = "downloading"
	StateSourceWritten    State = "source_written"
	StateTranscoding      State = "transcoding"
	StateDerivativeReady  State = "derivative_ready"
	StateSent             State = "sent"
	StateCleanupScheduled State = "cleanup_scheduled"
	StateFailed           State = "failed"
)

// Result describes one pipeline run. FailedAt is the state the run was in
// when Err happened.
type Result struct {
	State    State
	FailedAt State
	Err      error
	Pair     *entities.ArtifactPair
	Cleanup  *cleanup.Handle
}

func (r Result) fail(kind failure.Kind, err error) Result {
	r.FailedAt = r.State
	r.State = StateFailed
	r.Err = failure.New(kind, err)
	return r
}
