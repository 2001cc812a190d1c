// Package main contains the Lambda warmup handler for preventing cold starts.
// A scheduled EventBridge rule invokes it periodically to keep instances warm;
// translation sessions hold connections open for minutes, so a cold start in
// the middle of a bulk run is expensive.
package main

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog/log"
)

const (
	// warmupSource identifies warmup events from the scheduled rule.
	warmupSource = "warmup"

	// warmupDelay ensures instances overlap to create true concurrency.
	warmupDelay = 75 * time.Millisecond
)

// WarmupEvent is the scheduled-rule payload for warmup.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is returned by warmup invocations.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// IsWarmupEvent checks if the raw event is a warmup event.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var probe struct {
		Source      string   `json:"source"`
		Concurrency *float64 `json:"concurrency"`
	}
	if err := json.Unmarshal(event, &probe); err != nil || probe.Source != warmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: probe.Source}
	if probe.Concurrency != nil {
		warmup.Concurrency = int(*probe.Concurrency)
	}
	return warmup, true
}

// HandleWarmup processes a warmup event and optionally self-invokes to
// maintain multiple warm instances.
func HandleWarmup(ctx context.Context, warmup *WarmupEvent) (interface{}, error) {
	instancesWarmed := 1 // this instance counts as 1

	if warmup.Concurrency > 0 {
		if err := selfInvoke(ctx, warmup.Concurrency); err != nil {
			log.Warn().Err(err).Int("concurrency", warmup.Concurrency).Msg("warmup self-invoke failed")
		} else {
			instancesWarmed += warmup.Concurrency
		}
	}

	// Brief delay so the instances overlap
	time.Sleep(warmupDelay)

	log.Debug().Int("instancesWarmed", instancesWarmed).Msg("warmup handled")
	return map[string]interface{}{
		"statusCode": 200,
		"body":       WarmupResponse{Status: "warm", InstancesWarmed: instancesWarmed},
	}, nil
}

// selfInvoke invokes this function count times asynchronously to create
// additional warm instances. Child invocations carry concurrency=0 to
// prevent recursion.
func selfInvoke(ctx context.Context, count int) error {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}

	client := lambdasdk.NewFromConfig(cfg)
	functionName := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")

	payload, err := json.Marshal(WarmupEvent{Source: warmupSource, Concurrency: 0})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var invokeErr error
	var errMu sync.Mutex

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				errMu.Lock()
				if invokeErr == nil {
					invokeErr = err
				}
				errMu.Unlock()
			}
		}()
	}

	wg.Wait()
	return invokeErr
}
