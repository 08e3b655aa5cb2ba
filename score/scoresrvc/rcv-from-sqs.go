package scoresrvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/programme-lv/scoreboard/score/domain"
)

// GradedSqsMsg is the "submission graded" event the grading pipeline
// publishes once a submission's result becomes available.
type GradedSqsMsg struct {
	SubmID          int64    `json:"subm_id"`
	ParticipationID int64    `json:"participation_id"`
	TaskID          int64    `json:"task_id"`
	Timestamp       string   `json:"timestamp"` // RFC3339
	Score           *float64 `json:"score"`
	Subtasks        []struct {
		Idx   string  `json:"idx"`
		Score float64 `json:"score"`
	} `json:"subtasks"`
	Tokened  bool `json:"tokened"`
	Official bool `json:"official"`
}

// StartReceivingGradedFromSqs receives graded-submission events until ctx is
// cancelled and folds each into the score cache.
func StartReceivingGradedFromSqs(ctx context.Context,
	sqsUrl string, client *sqs.Client,
	srvc *ScoreSrvc,
	logger *slog.Logger,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			output, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            aws.String(sqsUrl),
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     1,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.Error("failed to receive messages", "error", err)
				continue
			}

			for _, msg := range output.Messages {
				if msg.Body == nil {
					return fmt.Errorf("message body is nil")
				}
				if msg.ReceiptHandle == nil {
					return fmt.Errorf("receipt handle is nil")
				}

				msgId := uuid.New()
				log := logger.With("msg_id", msgId)

				var graded GradedSqsMsg
				err = json.Unmarshal([]byte(*msg.Body), &graded)
				if err != nil {
					log.Error("failed to unmarshal graded message", "error", err)
					continue
				}

				sub, err := MapGradedMsg(graded)
				if err != nil {
					log.Error("malformed graded message", "error", err)
					continue
				}

				go func(handle string, sub GradedSubm) {
					err := srvc.UpdateScoreCache(context.Background(), sub)
					if err != nil {
						log.Error("failed to update score cache",
							"subm_id", sub.SubmID, "error", err)
						return // leave the message for redelivery
					}
					_, err = client.DeleteMessage(context.TODO(), &sqs.DeleteMessageInput{
						QueueUrl:      aws.String(sqsUrl),
						ReceiptHandle: aws.String(handle),
					})
					if err != nil {
						log.Error("failed to ack message", "error", err)
					}
				}(*msg.ReceiptHandle, sub)
			}
		}
	}
}

// MapGradedMsg converts the wire event into a GradedSubm. The same schema
// is accepted over the HTTP grading callback.
func MapGradedMsg(msg GradedSqsMsg) (GradedSubm, error) {
	timestamp, err := time.Parse(time.RFC3339, msg.Timestamp)
	if err != nil {
		return GradedSubm{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	sub := GradedSubm{
		SubmID:          msg.SubmID,
		ParticipationID: msg.ParticipationID,
		TaskID:          msg.TaskID,
		Timestamp:       timestamp,
		Score:           msg.Score,
		Tokened:         msg.Tokened,
		Official:        msg.Official,
	}
	for _, st := range msg.Subtasks {
		sub.Subtasks = append(sub.Subtasks, domain.SubtaskScore{Idx: st.Idx, Score: st.Score})
	}
	return sub, nil
}
