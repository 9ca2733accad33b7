package terminal

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hushmonday/Echo-hackathon/pkg/ai"
	"github.com/Hushmonday/Echo-hackathon/pkg/backend"
	"github.com/Hushmonday/Echo-hackathon/pkg/blobstore"
	"github.com/Hushmonday/Echo-hackathon/pkg/input_device"
	"github.com/Hushmonday/Echo-hackathon/pkg/panel"
	"github.com/Hushmonday/Echo-hackathon/pkg/recorder"
)

func newTestLoop(t *testing.T, input string) (*CommandLoop, *bytes.Buffer, *[]string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ai/summarize":
			_, _ = io.WriteString(w, `{"noteId": "n", "contentMd": "# Meeting Summary"}`)
		case "/api/exports/pdf":
			_, _ = io.WriteString(w, `{"exportId": "e", "url": "http://localhost:8000/exports/e.pdf"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail": "Not Found"}`)
		}
	}))
	t.Cleanup(server.Close)

	out := &bytes.Buffer{}
	display := NewDisplay(out)
	opened := &[]string{}
	display.openCommand = func(url string) *exec.Cmd {
		*opened = append(*opened, url)
		return nil
	}

	blobs := blobstore.New()
	noMicrophone := func() (input_device.AudioInputDevice, error) { return nil, assert.AnError }
	p := panel.New(recorder.New(noMicrophone, blobs), blobs, backend.NewClient(server.URL, server.Client()), ai.Capabilities{}, display, nil)
	return NewCommandLoop(p, display, strings.NewReader(input)), out, opened
}

func TestCommandLoop_RunsCommandsUntilQuit(t *testing.T) {
	loop, out, opened := newTestLoop(t, "summary\n\nexport\nwriter\nquit\nsummary\n")

	require.NoError(t, loop.Run(context.Background()))

	output := out.String()
	assert.Equal(t, 1, strings.Count(output, "*** Summary: # Meeting Summary"))
	assert.Contains(t, output, panel.WriterUnavailable)
	assert.Equal(t, []string{"http://localhost:8000/exports/e.pdf"}, *opened)
}

func TestCommandLoop_ReportsFailuresAndKeepsGoing(t *testing.T) {
	loop, out, _ := newTestLoop(t, "start\nupload\nbogus\nstop\nhelp\n")

	require.NoError(t, loop.Run(context.Background()))

	output := out.String()
	assert.Contains(t, output, "Failed: cannot open input device")
	assert.Contains(t, output, "Failed: there is no recording yet")
	assert.Contains(t, output, `Unknown command "bogus"`)
	assert.Equal(t, 2, strings.Count(output, "Commands:"))
}
