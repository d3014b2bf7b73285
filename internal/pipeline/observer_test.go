package pipeline

import (
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogObserver(t *testing.T) {
	t.Parallel()

	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 0})

	o := NewLogObserver(log)
	o.Event(Event{Type: EventStepCompleted, Chain: ChainInstall, Step: "download", Duration: time.Second})
	o.Event(Event{Type: EventStepFailed, Chain: ChainInstall, Step: "download", Code: 502, Message: "Unable to download"})

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg"="step.failed"`)
	assert.Contains(t, lines[0], `"code"=502`)
	assert.Contains(t, lines[0], `"message"="Unable to download"`)
}

func TestObserversFanOut(t *testing.T) {
	t.Parallel()

	var got []string
	record := func(tag string) Observer {
		return ObserverFunc(func(e Event) { got = append(got, tag+":"+string(e.Type)) })
	}

	Observers{record("a"), nil, record("b")}.Event(Event{Type: EventChainStarted})

	assert.Equal(t, []string{"a:chain.started", "b:chain.started"}, got)
}
