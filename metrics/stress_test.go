package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntensityRequiresPositiveThreshold(t *testing.T) {
	_, ok := Intensity(250, 0)
	require.False(t, ok)
	_, ok = Intensity(250, -10)
	require.False(t, ok)

	got, ok := Intensity(250, 250)
	require.True(t, ok)
	require.InDelta(t, 1.0, got, 1e-9)
}

func TestTrainingStressHourAtThreshold(t *testing.T) {
	require.InDelta(t, 100, TrainingStress(1.0, time.Hour), 1e-9)
	require.InDelta(t, 50, TrainingStress(1.0, 30*time.Minute), 1e-9)
}

func TestTrainingStressScalesWithIntensitySquared(t *testing.T) {
	// Two easy hours score like a half-intensity ride should: 100*2*0.25.
	require.InDelta(t, 50, TrainingStress(0.5, 2*time.Hour), 1e-9)
}
