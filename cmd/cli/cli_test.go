package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiastat/internal/errors"
	"wiastat/ports"
)

func float(v float64) *float64 { return &v }

func TestParseDiameters(t *testing.T) {
	req := ports.DiameterRequest{RestDefault: float(2.5), AgonistDefault: float(3)}

	tests := []struct {
		line    string
		ok      bool
		skip    bool
		rest    float64
		agonist float64
	}{
		{"", true, false, 2.5, 3},
		{"s", true, true, 0, 0},
		{"SKIP", true, true, 0, 0},
		{"2.1 2.4", true, false, 2.1, 2.4},
		{"2.1,2.4", true, false, 2.1, 2.4},
		{"2.1", false, false, 0, 0},
		{"a b", false, false, 0, 0},
		{"-1 2", false, false, 0, 0},
	}
	for _, tt := range tests {
		answer, ok := parseDiameters(tt.line, req)
		require.Equal(t, tt.ok, ok, tt.line)
		if !ok {
			continue
		}
		assert.Equal(t, tt.skip, answer.SkipAll, tt.line)
		if !tt.skip {
			require.NotNil(t, answer.Rest, tt.line)
			assert.Equal(t, tt.rest, *answer.Rest, tt.line)
			assert.Equal(t, tt.agonist, *answer.Agonist, tt.line)
		}
	}
}

func TestConsolePrompterRetriesUntilValid(t *testing.T) {
	var out bytes.Buffer
	p := newConsolePrompter(bufio.NewReader(strings.NewReader("oops\n1.5 2\n")), &out)

	answer, err := p.PromptDiameters(context.Background(), ports.DiameterRequest{Message: "P001"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, *answer.Rest)
	assert.Equal(t, 2.0, *answer.Agonist)
	assert.Contains(t, out.String(), "please enter two positive numbers")
}

func TestConsolePrompterSkipsOnClosedInput(t *testing.T) {
	p := newConsolePrompter(bufio.NewReader(strings.NewReader("")), &bytes.Buffer{})
	answer, err := p.PromptDiameters(context.Background(), ports.DiameterRequest{})
	require.NoError(t, err)
	assert.True(t, answer.SkipAll)
}

func TestConsoleConfirmer(t *testing.T) {
	assert.True(t, newConsoleConfirmer(bufio.NewReader(strings.NewReader("y\n")), &bytes.Buffer{}, false).ConfirmOverwrite("a.xlsx"))
	assert.False(t, newConsoleConfirmer(bufio.NewReader(strings.NewReader("\n")), &bytes.Buffer{}, false).ConfirmOverwrite("a.xlsx"))
	assert.True(t, newConsoleConfirmer(bufio.NewReader(strings.NewReader("")), &bytes.Buffer{}, true).ConfirmOverwrite("a.xlsx"))
}

func TestParseGroup(t *testing.T) {
	name, keys, err := parseGroup("Forward = FCW|proximal, lfcw|proximal")
	require.NoError(t, err)
	assert.Equal(t, "Forward", name)
	assert.Equal(t, []string{"fcw|proximal", "lfcw|proximal"}, keys)

	_, _, err = parseGroup("no-equals")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	_, _, err = parseGroup("Empty=")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WIA_LOG_LEVEL", "error")
	t.Setenv("DATABASE_URL", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateRunAndCategories(t *testing.T) {
	dir := t.TempDir()
	cohort := filepath.Join(dir, "cohort.xlsx")
	report := filepath.Join(dir, "stats.md")

	out, err := execute(t, "", "generate", "--out", cohort, "--vessels", "6", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "18 samples")

	out, err = execute(t, "", "categories", cohort)
	require.NoError(t, err)
	assert.Contains(t, out, "fcw|proximal")
	assert.Contains(t, out, "Adenosine")

	out, err = execute(t, "", "run", cohort, "--out", report, "--skip-diameters",
		"--group", "Forward=fcw|proximal,lfcw|proximal")
	require.NoError(t, err)
	assert.Contains(t, out, "18 samples")
	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Rest vs Adenosine")

	// An existing report is kept unless the overwrite is confirmed.
	_, err = execute(t, "n\n", "run", cohort, "--out", report, "--skip-diameters")
	assert.Equal(t, errors.CodeTargetExists, errors.GetCode(err))
	_, err = execute(t, "", "run", cohort, "--out", report, "--skip-diameters", "--force")
	assert.NoError(t, err)
}

func TestExportWritesMatrix(t *testing.T) {
	dir := t.TempDir()
	cohort := filepath.Join(dir, "cohort.json")
	matrix := filepath.Join(dir, "matrix.csv")

	_, err := execute(t, "", "generate", "--out", cohort, "--vessels", "2")
	require.NoError(t, err)
	_, err = execute(t, "", "export", cohort, "--out", matrix)
	require.NoError(t, err)

	data, err := os.ReadFile(matrix)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 7)
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "", "generate", "--out", filepath.Join(t.TempDir(), "cohort.txt"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
