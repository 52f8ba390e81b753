package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	// Wednesday
	clk := clockwork.NewFakeClockAt(time.Date(2025, 10, 15, 8, 0, 0, 0, loc))

	root := newRootCmd(clk)
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNormalizeCmd(t *testing.T) {
	out, err := execute(t, "", "normalize", "Starting", "3rd", "September", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "normalized: 2025-09-03")
	assert.Contains(t, out, "display:    03.09.2025")
	assert.Contains(t, out, "recurrence: -")

	out, err = execute(t, "", "normalize", "Every Monday and Wednesday")
	require.NoError(t, err)
	assert.Contains(t, out, "recurrence: MO,WE")
}

func TestMapCmd(t *testing.T) {
	out, err := execute(t, `{"title":"Swim","date":"Every Monday","startTime":"14:00"}`, "map")
	require.NoError(t, err)
	assert.Contains(t, out, `"dateTime": "2025-10-20T14:00:00+02:00"`)
	assert.Contains(t, out, `"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20261020T120000Z"`)

	_, err = execute(t, `{"date":"whenever"}`, "map")
	assert.ErrorContains(t, err, "invalid start date")

	_, err = execute(t, `not json`, "map")
	assert.Error(t, err)

	_, err = execute(t, `{}`, "map", "--timezone", "Mars/Olympus")
	assert.Error(t, err)
}

func TestRun_UnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"bogus"}, strings.NewReader(""), &bytes.Buffer{}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown command")
}
