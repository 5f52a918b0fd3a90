package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/framestamp/internal/task"
)

func videoTask(i int) task.VideoTask {
	return task.VideoTask{Index: i, Total: 100, InputPath: fmt.Sprintf("/in/v%03d.mp4", i)}
}

func TestAggregator_CountsAlwaysAddUp(t *testing.T) {
	agg := NewAggregator(nil)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				agg.Record(Failure(videoTask(i), time.Millisecond, errors.New("boom")))
				return
			}
			agg.Record(Success(videoTask(i), time.Millisecond, 10))
		}(i)
	}
	wg.Wait()

	s := agg.Summarize()
	assert.Equal(t, n, s.Total)
	assert.Equal(t, n, s.Succeeded+s.Failed)
	assert.Equal(t, 40, s.Failed)
	assert.Len(t, s.FailedNames, 40)
	assert.Equal(t, int64(160*10), s.OutputBytes)
	assert.Equal(t, time.Duration(n)*time.Millisecond, s.TotalElapsed)
	assert.Equal(t, time.Millisecond, s.MeanElapsed)
}

func TestAggregator_Empty(t *testing.T) {
	s := NewAggregator(nil).Summarize()
	assert.Zero(t, s.Total)
	assert.Zero(t, s.MeanElapsed)
	assert.Empty(t, s.FailedNames)
}

func TestAggregator_SummaryIsASnapshot(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Record(Failure(videoTask(1), time.Second, errors.New("x")))
	s := agg.Summarize()
	s.FailedNames[0] = "changed"
	assert.Equal(t, []string{"v001.mp4"}, agg.Summarize().FailedNames)
}

func TestResult_Reason(t *testing.T) {
	assert.Empty(t, Success(videoTask(1), 0, 0).Reason())
	assert.Equal(t, "asset not found: x.png", Failure(videoTask(1), 0, errors.New("asset not found: x.png")).Reason())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "succeeded", Succeeded.String())
}

func TestMetrics(t *testing.T) {
	m := NewMetrics("framestamp", "run-1")
	agg := NewAggregator(m)

	agg.Record(Success(videoTask(1), 2*time.Second, 0))
	agg.Record(Success(videoTask(2), 3*time.Second, 0))
	agg.Record(Failure(videoTask(3), time.Second, errors.New("x")))
	m.Retry()

	m.TaskStarted()
	m.TaskStarted()
	m.TaskFinished()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tasksTotal.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.active))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.peak))

	path := filepath.Join(t.TempDir(), "framestamp.prom")
	require.NoError(t, m.WriteFile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `framestamp_tasks_total{outcome="succeeded",run_id="run-1"} 2`)
	assert.Contains(t, string(b), "framestamp_task_duration_seconds_bucket")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Observe(Success(videoTask(1), 0, 0))
	m.Retry()
	m.TaskStarted()
	m.TaskFinished()
	assert.NoError(t, m.WriteFile("/nonexistent/dir/x.prom"))
	assert.Nil(t, m.Registry())
}
