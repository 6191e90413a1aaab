package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StepCounter reports a user's step total for one UTC day from an external source.
type StepCounter interface {
	DailySteps(ctx context.Context, accessToken string, on time.Time) (int, error)
}

// GoogleFitClient aggregates step deltas through the Google Fit REST API.
type GoogleFitClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewGoogleFitClient(baseURL string, timeout time.Duration) *GoogleFitClient {
	return &GoogleFitClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type fitAggregateBy struct {
	DataTypeName string `json:"dataTypeName"`
	DataSourceID string `json:"dataSourceId"`
}

type fitAggregateRequest struct {
	AggregateBy     []fitAggregateBy `json:"aggregateBy"`
	BucketByTime    map[string]int64 `json:"bucketByTime"`
	StartTimeMillis int64            `json:"startTimeMillis"`
	EndTimeMillis   int64            `json:"endTimeMillis"`
}

type fitAggregateResponse struct {
	Bucket []struct {
		Dataset []struct {
			Point []struct {
				Value []struct {
					IntVal int `json:"intVal"`
				} `json:"value"`
			} `json:"point"`
		} `json:"dataset"`
	} `json:"bucket"`
}

// DailySteps sums every step point in the day's single 24h bucket.
func (c *GoogleFitClient) DailySteps(ctx context.Context, accessToken string, on time.Time) (int, error) {
	start := DayStart(on)
	body, err := json.Marshal(fitAggregateRequest{
		AggregateBy: []fitAggregateBy{{
			DataTypeName: "com.google.step_count.delta",
			DataSourceID: "derived:com.google.step_count.delta:platform_type:estimated_steps",
		}},
		BucketByTime:    map[string]int64{"durationMillis": day.Milliseconds()},
		StartTimeMillis: start.UnixMilli(),
		EndTimeMillis:   start.Add(day).UnixMilli(),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to encode request: %v", ErrExternalVerificationUnavailable, err)
	}

	url := fmt.Sprintf("%s/fitness/v1/users/me/dataset:aggregate", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create request: %v", ErrExternalVerificationUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExternalVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("%w: fitness api returned status %d: %s", ErrExternalVerificationUnavailable, resp.StatusCode, string(msg))
	}

	var out fitAggregateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: failed to decode fitness response: %v", ErrExternalVerificationUnavailable, err)
	}

	steps := 0
	for _, b := range out.Bucket {
		for _, ds := range b.Dataset {
			for _, p := range ds.Point {
				for _, v := range p.Value {
					steps += v.IntVal
				}
			}
		}
	}
	return steps, nil
}
