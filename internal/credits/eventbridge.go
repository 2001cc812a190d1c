package credits

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/rs/zerolog/log"
)

const (
	eventSource     = "translation-orchestrator"
	eventDetailType = "CreditsUpdated"
)

// EventBridgeBroadcaster publishes CreditsUpdated events to an EventBridge
// bus so sidebars and other dashboard surfaces can refetch the balance.
type EventBridgeBroadcaster struct {
	client  *eventbridge.Client
	busName string
}

// NewEventBridgeBroadcaster creates a broadcaster targeting the given bus.
// An empty bus name publishes to the account's default bus.
func NewEventBridgeBroadcaster(client *eventbridge.Client, busName string) *EventBridgeBroadcaster {
	return &EventBridgeBroadcaster{client: client, busName: busName}
}

// BroadcastCreditsUpdated publishes one CreditsUpdated event.
func (b *EventBridgeBroadcaster) BroadcastCreditsUpdated(ctx context.Context, event CreditsUpdated) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal CreditsUpdated: %w", err)
	}

	entry := eventbridgetypes.PutEventsRequestEntry{
		Source:     aws.String(eventSource),
		DetailType: aws.String(eventDetailType),
		Detail:     aws.String(string(detail)),
	}
	if b.busName != "" {
		entry.EventBusName = aws.String(b.busName)
	}

	result, err := b.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []eventbridgetypes.PutEventsRequestEntry{entry},
	})
	if err != nil {
		log.Error().Err(err).Str("sessionId", event.SessionID).Msg("EventBridge PutEvents failed")
		return fmt.Errorf("PutEvents: %w", err)
	}
	if result.FailedEntryCount > 0 {
		for i, e := range result.Entries {
			if e.ErrorCode != nil || e.ErrorMessage != nil {
				return fmt.Errorf("PutEvents entry %d failed: %s - %s",
					i, aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
	}

	log.Debug().Str("sessionId", event.SessionID).Float64("deducted", event.Deducted).Msg("CreditsUpdated emitted")
	return nil
}
