package experiment

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 4, 2)

	tracker.Start(0)
	tracker.Increment(1)
	assert.Empty(t, buf.String())

	tracker.Increment(1)
	assert.Contains(t, buf.String(), "2/4 (50.0%)")

	tracker.Increment(2)
	assert.Contains(t, buf.String(), "4/4 (100.0%)")
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
}

func TestProgressTracker_Resume(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	tracker.Start(7)
	tracker.Increment(1)
	assert.Contains(t, buf.String(), "8/10")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 3, 10)

	tracker.Start(0)
	tracker.Increment(3)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "3/3")
	assert.True(t, strings.HasSuffix(output, "\n"))
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 3, 1)

	tracker.Increment(1)
	tracker.Finish()
	assert.Empty(t, buf.String())
	assert.Equal(t, time.Duration(0), tracker.Elapsed())
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 2, 1)

	tracker.Start(0)
	tracker.Increment(5)
	assert.Contains(t, buf.String(), "2/2")
	assert.NotContains(t, buf.String(), "5/2")
}
