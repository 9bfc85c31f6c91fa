package loadtest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config holds configuration for load testing
type Config struct {
	URL             string
	ConcurrentUsers int
	RequestsPerUser int
	Timeout         time.Duration
	TestDuration    time.Duration
	RampUpDuration  time.Duration
	ThinkTime       time.Duration
}

// Result holds the result of a single request
type Result struct {
	UserID     int
	RequestID  int
	StatusCode int
	Duration   time.Duration
	Success    bool
	Error      error
	Timestamp  time.Time
}

// Summary aggregates all results of a run
type Summary struct {
	TotalRequests       int
	SuccessfulRequests  int
	FailedRequests      int
	TotalDuration       time.Duration
	AverageResponseTime time.Duration
	MinResponseTime     time.Duration
	MaxResponseTime     time.Duration
	RequestsPerSecond   float64
	ErrorRate           float64
	ResponseTime95th    time.Duration
	ResponseTime99th    time.Duration
	StatusCodes         map[int]int
}

// Run drives ConcurrentUsers virtual users against URL until each has sent
// RequestsPerUser requests, TestDuration elapses or ctx is done.
func Run(ctx context.Context, config Config) Summary {
	if config.ConcurrentUsers <= 0 {
		config.ConcurrentUsers = 1
	}
	results := make(chan Result, config.ConcurrentUsers*4)

	client := &http.Client{Timeout: config.Timeout}

	if config.TestDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.TestDuration)
		defer cancel()
	}

	startTime := time.Now()
	summaryChannel := make(chan Summary, 1)
	go func() {
		summaryChannel <- Summarize(results, 0)
	}()

	rampUpDelay := config.RampUpDuration / time.Duration(config.ConcurrentUsers)

	group, groupContext := errgroup.WithContext(ctx)
	for userID := 0; userID < config.ConcurrentUsers; userID++ {
		userID := userID
		group.Go(func() error {
			if !sleep(groupContext, time.Duration(userID)*rampUpDelay) {
				return nil
			}

			for requestID := 0; requestID < config.RequestsPerUser; requestID++ {
				if groupContext.Err() != nil {
					return nil
				}
				results <- makeRequest(groupContext, client, config.URL, userID, requestID)

				if config.ThinkTime > 0 && !sleep(groupContext, config.ThinkTime) {
					return nil
				}
			}
			return nil
		})
	}

	// users never return errors; a stopped run still yields a summary
	_ = group.Wait()
	close(results)

	summary := <-summaryChannel
	summary.TotalDuration = time.Since(startTime)
	if summary.TotalDuration > 0 {
		summary.RequestsPerSecond = float64(summary.TotalRequests) / summary.TotalDuration.Seconds()
	}
	return summary
}

func sleep(ctx context.Context, duration time.Duration) bool {
	if duration <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func makeRequest(ctx context.Context, client *http.Client, url string, userID, requestID int) Result {
	start := time.Now()
	result := Result{UserID: userID, RequestID: requestID, Timestamp: start}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err
		return result
	}

	resp, err := client.Do(request)
	if err != nil {
		result.Duration = time.Since(start)
		result.Error = err
		return result
	}
	// drain so the connection is reused
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	result.Duration = time.Since(start)
	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	return result
}

// Summarize computes statistics over results
func Summarize(results <-chan Result, totalDuration time.Duration) Summary {
	summary := Summary{TotalDuration: totalDuration, StatusCodes: map[int]int{}}
	var responseTimes []time.Duration

	for result := range results {
		summary.TotalRequests++
		responseTimes = append(responseTimes, result.Duration)
		summary.StatusCodes[result.StatusCode]++

		if result.Success {
			summary.SuccessfulRequests++
		} else {
			summary.FailedRequests++
		}
	}

	if summary.TotalRequests == 0 {
		return summary
	}

	summary.ErrorRate = float64(summary.FailedRequests) / float64(summary.TotalRequests) * 100
	if totalDuration > 0 {
		summary.RequestsPerSecond = float64(summary.TotalRequests) / totalDuration.Seconds()
	}

	sort.Slice(responseTimes, func(i, j int) bool { return responseTimes[i] < responseTimes[j] })

	var totalResponseTime time.Duration
	for _, responseTime := range responseTimes {
		totalResponseTime += responseTime
	}
	summary.MinResponseTime = responseTimes[0]
	summary.MaxResponseTime = responseTimes[len(responseTimes)-1]
	summary.AverageResponseTime = totalResponseTime / time.Duration(len(responseTimes))
	summary.ResponseTime95th = percentile(responseTimes, 95)
	summary.ResponseTime99th = percentile(responseTimes, 99)

	return summary
}

// percentile expects sorted input
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * float64(p) / 100.0)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// Print writes a human readable report of summary
func Print(out io.Writer, summary Summary) {
	successRate := 0.0
	if summary.TotalRequests > 0 {
		successRate = float64(summary.SuccessfulRequests) / float64(summary.TotalRequests) * 100
	}

	fmt.Fprintln(out, "=== Load Test Results ===")
	fmt.Fprintf(out, "Total Requests: %d\n", summary.TotalRequests)
	fmt.Fprintf(out, "Successful Requests: %d (%.2f%%)\n", summary.SuccessfulRequests, successRate)
	fmt.Fprintf(out, "Failed Requests: %d (%.2f%%)\n", summary.FailedRequests, summary.ErrorRate)
	fmt.Fprintf(out, "Total Duration: %v\n", summary.TotalDuration)
	fmt.Fprintf(out, "Requests per Second: %.2f\n", summary.RequestsPerSecond)
	fmt.Fprintf(out, "Average Response Time: %v\n", summary.AverageResponseTime)
	fmt.Fprintf(out, "Min Response Time: %v\n", summary.MinResponseTime)
	fmt.Fprintf(out, "Max Response Time: %v\n", summary.MaxResponseTime)
	fmt.Fprintf(out, "95th Percentile Response Time: %v\n", summary.ResponseTime95th)
	fmt.Fprintf(out, "99th Percentile Response Time: %v\n", summary.ResponseTime99th)

	codes := make([]int, 0, len(summary.StatusCodes))
	for code := range summary.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		label := fmt.Sprint(code)
		if code == 0 {
			label = "transport error"
		}
		fmt.Fprintf(out, "  %s: %d\n", label, summary.StatusCodes[code])
	}

	fmt.Fprintln(out, "\n=== Performance Assessment ===")
	if summary.ErrorRate > 5.0 {
		fmt.Fprintf(out, "High error rate: %.2f%% (target: < 5%%)\n", summary.ErrorRate)
	} else {
		fmt.Fprintf(out, "Error rate: %.2f%% (good)\n", summary.ErrorRate)
	}
	if summary.AverageResponseTime > 2*time.Second {
		fmt.Fprintf(out, "High average response time: %v (target: < 2s)\n", summary.AverageResponseTime)
	} else {
		fmt.Fprintf(out, "Average response time: %v (good)\n", summary.AverageResponseTime)
	}
	if summary.RequestsPerSecond < 10 {
		fmt.Fprintf(out, "Low throughput: %.2f req/s (target: > 10 req/s)\n", summary.RequestsPerSecond)
	} else {
		fmt.Fprintf(out, "Throughput: %.2f req/s (good)\n", summary.RequestsPerSecond)
	}
}
