package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// HandleEmailSend delivers an outbound email job.
func HandleEmailSend(_ context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode email payload: %w: %w", err, asynq.SkipRetry)
	}

	// TODO: wire an SMTP sender once outbound mail credentials exist.
	log.Info().Str("recipient", payload.Recipient).Str("subject", payload.Subject).Msg("Email task processed")
	return nil
}

// HandleFileProcess runs post-upload processing for a stored file.
func HandleFileProcess(_ context.Context, t *asynq.Task) error {
	var payload FileProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode file payload: %w: %w", err, asynq.SkipRetry)
	}

	log.Info().Str("filename", payload.Filename).Int64("user_id", payload.UserID).Msg("File processing task completed")
	return nil
}
