package testcvs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// batchItem mirrors one entry of the batch request body.
type batchItem struct {
	CVText   string `json:"cv_text"`
	Filename string `json:"filename"`
}

// submitCVs submits CVs in batches using a concurrent worker pool and
// returns the job IDs the service accepted.
func submitCVs(ctx context.Context, config *Config, cvs []CV, stats *Stats) ([]string, error) {
	log.Printf("submitting %d CVs in batches of %d with %d workers", len(cvs), config.BatchSize, config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/analyses/batch"

	batches := make([][]CV, 0, (len(cvs)+config.BatchSize-1)/config.BatchSize)
	for start := 0; start < len(cvs); start += config.BatchSize {
		end := start + config.BatchSize
		if end > len(cvs) {
			end = len(cvs)
		}
		batches = append(batches, cvs[start:end])
	}

	var (
		submitted int64
		accepted  int64
		rejected  int64
	)
	var mu sync.Mutex
	var jobIDs []string

	batchChan := make(chan []CV, config.Workers)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				ids, err := submitSingleBatch(ctx, client, url, batch)
				atomic.AddInt64(&submitted, int64(len(batch)))
				if err != nil {
					atomic.AddInt64(&rejected, int64(len(batch)))
					if config.Verbose {
						log.Printf("batch rejected: %v", err)
					}
					continue
				}
				atomic.AddInt64(&accepted, int64(len(ids)))
				mu.Lock()
				jobIDs = append(jobIDs, ids...)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(batchChan)
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				return
			case batchChan <- batch:
			}
		}
	}()

	wg.Wait()

	stats.CVsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.JobsAccepted = int(atomic.LoadInt64(&accepted))
	stats.JobsRejected = int(atomic.LoadInt64(&rejected))

	log.Printf("batch submission completed: accepted=%d rejected=%d", stats.JobsAccepted, stats.JobsRejected)
	return jobIDs, nil
}

// submitSingleBatch posts one batch and returns accepted job IDs.
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, batch []CV) ([]string, error) {
	items := make([]batchItem, 0, len(batch))
	for _, cv := range batch {
		items = append(items, batchItem{CVText: cv.CVText, Filename: cv.Filename})
	}

	resp, err := client.Post(ctx, url, map[string]interface{}{"items": items})
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != StatusAccepted {
		return nil, fmt.Errorf("batch submission returned status %d", resp.StatusCode)
	}

	var parsed BatchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse batch response: %w", err)
	}
	ids := make([]string, 0, len(parsed.Jobs))
	for _, job := range parsed.Jobs {
		ids = append(ids, job.ID)
	}
	return ids, nil
}

// pollJobs polls job status until every job reaches a terminal state or
// the poll window expires.
func pollJobs(ctx context.Context, config *Config, jobIDs []string, stats *Stats) error {
	log.Printf("polling %d jobs until completion", len(jobIDs))

	client := newHTTPClient(config.Timeout)
	pending := make(map[string]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		pending[id] = struct{}{}
	}

	deadline := time.Now().Add(MaxPollDuration)
	completed, failed := 0, 0

	for len(pending) > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while polling jobs: %w", ctx.Err())
		case <-time.After(config.PollInterval):
		}

		for id := range pending {
			job, err := fetchJob(ctx, client, config.BaseURL, id)
			if err != nil {
				continue
			}
			switch job.Status {
			case "complete":
				completed++
				delete(pending, id)
			case "failed":
				failed++
				if config.Verbose {
					log.Printf("job %s failed: %s", id, job.Error)
				}
				delete(pending, id)
			}
		}

		if config.Verbose {
			log.Printf("poll progress: complete=%d failed=%d pending=%d", completed, failed, len(pending))
		}
	}

	stats.JobsCompleted = completed
	stats.JobsFailed = failed

	if len(pending) > 0 {
		return fmt.Errorf("%d jobs still pending after %s", len(pending), MaxPollDuration)
	}
	return nil
}

// fetchJob retrieves a single job status.
func fetchJob(ctx context.Context, client *HTTPClient, baseURL, id string) (*JobView, error) {
	resp, err := client.Get(ctx, baseURL+"/jobs/"+id)
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("job lookup returned status %d", resp.StatusCode)
	}

	var job JobView
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job response: %w", err)
	}
	return &job, nil
}
