package runner

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/firmware-ci/fw-acceptor/types"
)

// ProgressIndicator interface for UI updates
type ProgressIndicator interface {
	StartBatch(totalTests int)
	StartTest(testName string)
	UpdateTest(testName string, status types.TestStatus)
	Stop()
}

// noOpProgressIndicator provides a no-op implementation of ProgressIndicator
type noOpProgressIndicator struct{}

// NewNoOpProgressIndicator creates a progress indicator that does nothing
func NewNoOpProgressIndicator() ProgressIndicator {
	return &noOpProgressIndicator{}
}

func (n *noOpProgressIndicator) StartBatch(totalTests int)                           {}
func (n *noOpProgressIndicator) StartTest(testName string)                           {}
func (n *noOpProgressIndicator) UpdateTest(testName string, status types.TestStatus) {}
func (n *noOpProgressIndicator) Stop()                                               {}

// consoleProgressIndicator logs periodic progress updates while a batch is
// running, including how long each in-flight test has been going.
type consoleProgressIndicator struct {
	logger log.Logger
	ticker *time.Ticker
	stopCh chan struct{}
	mu     sync.RWMutex

	completedTests int
	totalTests     int
	batchStartTime time.Time

	// Track currently running tests
	runningTests map[string]time.Time // test name -> start time
}

// NewConsoleProgressIndicator creates a progress indicator that shows
// updates in the console at the given interval.
func NewConsoleProgressIndicator(logger log.Logger, updateInterval time.Duration) ProgressIndicator {
	if updateInterval == 0 {
		updateInterval = 30 * time.Second
	}

	indicator := &consoleProgressIndicator{
		logger:       logger,
		ticker:       time.NewTicker(updateInterval),
		stopCh:       make(chan struct{}),
		runningTests: make(map[string]time.Time),
	}

	go indicator.progressReporter()

	return indicator
}

func (c *consoleProgressIndicator) StartBatch(totalTests int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalTests = totalTests
	c.completedTests = 0
	c.batchStartTime = time.Now()
	c.runningTests = make(map[string]time.Time)

	c.logger.Info("Starting batch", "totalTests", totalTests)
}

func (c *consoleProgressIndicator) StartTest(testName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runningTests[testName] = time.Now()
}

func (c *consoleProgressIndicator) UpdateTest(testName string, status types.TestStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.runningTests, testName)
	c.completedTests++
}

func (c *consoleProgressIndicator) Stop() {
	c.ticker.Stop()
	close(c.stopCh)
}

func (c *consoleProgressIndicator) progressReporter() {
	for {
		select {
		case <-c.ticker.C:
			c.reportProgress()
		case <-c.stopCh:
			return
		}
	}
}

func (c *consoleProgressIndicator) reportProgress() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.totalTests == 0 {
		return
	}

	elapsed := time.Since(c.batchStartTime).Round(time.Second)
	c.logger.Info("Test progress",
		"completed", fmt.Sprintf("%d/%d", c.completedTests, c.totalTests),
		"elapsed", elapsed,
		"running", c.runningTestsSummary())
}

// runningTestsSummary renders the in-flight tests with their elapsed times,
// longest-running first.
func (c *consoleProgressIndicator) runningTestsSummary() string {
	if len(c.runningTests) == 0 {
		return "none"
	}

	type runningTest struct {
		name    string
		elapsed time.Duration
	}
	tests := make([]runningTest, 0, len(c.runningTests))
	for name, started := range c.runningTests {
		tests = append(tests, runningTest{name: name, elapsed: time.Since(started)})
	}
	sort.Slice(tests, func(i, j int) bool {
		return tests[i].elapsed > tests[j].elapsed
	})

	parts := make([]string, 0, len(tests))
	for _, t := range tests {
		parts = append(parts, fmt.Sprintf("%s (%s)", t.name, t.elapsed.Round(time.Second)))
	}
	return strings.Join(parts, ", ")
}
