package workers

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingWorker struct {
	name     string
	startErr error
	log      *[]string
}

func (w *recordingWorker) Start() error {
	*w.log = append(*w.log, "start "+w.name)
	return w.startErr
}

func (w *recordingWorker) Stop() {
	*w.log = append(*w.log, "stop "+w.name)
}

func (w *recordingWorker) Name() string {
	return w.name
}

func TestManager(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("stops in reverse order", func(t *testing.T) {
		var log []string
		m := NewManager(logger,
			&recordingWorker{name: "a", log: &log},
			&recordingWorker{name: "b", log: &log},
		)

		assert.NoError(t, m.Start())
		m.Stop()
		assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
	})

	t.Run("failed start stops the started ones", func(t *testing.T) {
		var log []string
		m := NewManager(logger,
			&recordingWorker{name: "a", log: &log},
			&recordingWorker{name: "b", log: &log, startErr: errors.New("bad schedule")},
			&recordingWorker{name: "c", log: &log},
		)

		assert.Error(t, m.Start())
		assert.Equal(t, []string{"start a", "start b", "stop a"}, log)
	})
}
