package listen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/logging"
)

func noSleep(context.Context, time.Duration) error { return nil }

func calibrationSource() *frames {
	var list []audio.Frame
	for _, p := range []int16{100, 300, 200, 150, 250} {
		list = append(list, frame(p))
	}
	for _, p := range []int16{4000, 1000, 6000, 3000, 5000} {
		list = append(list, frame(p))
	}
	return &frames{list: list}
}

func TestCalibrateMidpoint(t *testing.T) {
	var prompts []string
	c := &Calibrator{
		Chunk:  time.Second,
		Phase:  5 * time.Second,
		Method: MethodMidpoint,
		Prompt: func(m string) { prompts = append(prompts, m) },
		Sleep:  noSleep,
		Log:    logging.Nop(),
	}

	res, err := c.Run(context.Background(), calibrationSource())
	require.NoError(t, err)
	assert.Equal(t, Calibration{Quiet: 200, Loud: 4000, Threshold: 2100}, res)
	assert.Contains(t, prompts, "Quiet!")
	assert.Contains(t, prompts, "Read!")
}

func TestCalibratePercentile(t *testing.T) {
	c := &Calibrator{Chunk: time.Second, Phase: 5 * time.Second, Method: MethodPercentile, Percentile: 10, Sleep: noSleep}

	res, err := c.Run(context.Background(), calibrationSource())
	require.NoError(t, err)
	// sorted loud peaks 1000 3000 4000 5000 6000, rank 0.4
	assert.Equal(t, 1800, res.Threshold)
}

func TestCalibrateIsRerunnable(t *testing.T) {
	c := &Calibrator{Chunk: time.Second, Phase: 5 * time.Second, Sleep: noSleep}
	first, err := c.Run(context.Background(), calibrationSource())
	require.NoError(t, err)
	second, err := c.Run(context.Background(), calibrationSource())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalibrateErrors(t *testing.T) {
	ctx := context.Background()

	_, err := (&Calibrator{Chunk: 0, Phase: time.Second, Sleep: noSleep}).Run(ctx, calibrationSource())
	assert.Error(t, err)

	_, err = (&Calibrator{Chunk: time.Second, Phase: 500 * time.Millisecond, Sleep: noSleep}).Run(ctx, calibrationSource())
	assert.Error(t, err)

	_, err = (&Calibrator{Chunk: time.Second, Phase: 5 * time.Second, Method: "mean", Sleep: noSleep}).Run(ctx, calibrationSource())
	assert.Error(t, err)

	_, err = (&Calibrator{Chunk: time.Second, Phase: 20 * time.Second, Sleep: noSleep}).Run(ctx, calibrationSource())
	assert.Error(t, err, "source runs dry")
}

func TestCalibrateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Calibrator{Chunk: time.Second, Phase: 5 * time.Second}
	_, err := c.Run(ctx, calibrationSource())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMedianAndPercentile(t *testing.T) {
	assert.Equal(t, 2, median([]int{3, 1, 2}))
	assert.Equal(t, 2, median([]int{1, 2, 3, 4}))
	assert.Equal(t, 1, percentile([]int{1, 2, 3}, 0))
	assert.Equal(t, 3, percentile([]int{1, 2, 3}, 100))
	assert.Equal(t, 2, percentile([]int{3, 1, 2}, 50))
}
