package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/poiesic/maniplib/preflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// The first two voters rank Carol first and Bob second. Without them Alice
// leads Bob by one approval, so together they can make Bob win.
const toyElection = `4
1,Alice
2,Bob
3,Carol
4,Dave
8,8,4
2,3,2,1,4
3,1,2,3,4
2,2,1,3,4
1,3,1,2,4
`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"maniplib"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func findFlag(cmd *cli.Command, name string) cli.Flag {
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return f
			}
		}
	}
	return nil
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	t.Run("db has default value", func(t *testing.T) {
		var dbFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "db" {
				dbFlag = f
				break
			}
		}
		require.NotNil(t, dbFlag)
		assert.Equal(t, "./maniplib_db", dbFlag.Value)
	})

	t.Run("manipulate defaults", func(t *testing.T) {
		cmd := app.Command("manipulate")
		require.NotNil(t, cmd)

		strategy, ok := findFlag(cmd, "strategy").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "consistent", strategy.Value)

		evaluator, ok := findFlag(cmd, "e").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "utilitarian", evaluator.Value)

		committee, ok := findFlag(cmd, "k").(*cli.IntFlag)
		require.True(t, ok)
		assert.Equal(t, 1, committee.Value)
	})

	t.Run("dataset is required", func(t *testing.T) {
		_, err := runApp(t, "--memory", "manipulate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dataset")
	})

	t.Run("all commands registered", func(t *testing.T) {
		for _, name := range []string{"manipulate", "winners", "generate", "single-peaked", "experiment", "results"} {
			assert.NotNil(t, app.Command(name), name)
		}
	})
}

func TestSetupLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			_, err := runApp(t, "--log-level", level, "--memory", "results")
			assert.NoError(t, err)
		})
	}

	t.Run("invalid level", func(t *testing.T) {
		_, err := runApp(t, "--log-level", "verbose", "--memory", "results")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestManipulateCommand(t *testing.T) {
	path := writeFile(t, "toy.soc", toyElection)

	out, err := runApp(t, "--memory", "manipulate", "--dataset", path, "-r", "2")
	require.NoError(t, err)
	assert.Regexp(t, `Found:\s+true`, out)
	assert.Regexp(t, `Support:\s+Bob\n`, out)
	assert.Regexp(t, `Winners:\s+Bob\n`, out)
	assert.Regexp(t, `Value:\s+6\n`, out)

	_, err = runApp(t, "--memory", "manipulate", "--dataset", path, "-r", "2", "--strategy", "bribery")
	assert.Error(t, err)

	_, err = runApp(t, "--memory", "manipulate", "--dataset", path, "-r", "9")
	assert.Error(t, err)
}

func TestWinnersCommand(t *testing.T) {
	path := writeFile(t, "toy.soc", toyElection)

	out, err := runApp(t, "--memory", "winners", "--dataset", path, "-a", "1", "-k", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^Alice\s+3$`, lines[1])
	assert.Regexp(t, `^Carol\s+3$`, lines[2])

	_, err = runApp(t, "--memory", "winners", "--dataset", path, "-k", "7")
	assert.Error(t, err)
}

func TestWinnersCommand_Tiebreak(t *testing.T) {
	path := writeFile(t, "toy.soc", toyElection)

	for _, k := range []int{1, 2, 3} {
		out, err := runApp(t, "--memory", "winners", "--dataset", path, "--tiebreak",
			"-a", "2", "-k", strconv.Itoa(k), "-r", "2", "--seed", "5")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, k+1, "k=%d", k)
		assert.Regexp(t, `^CANDIDATE\s+SCORE$`, lines[0])

		seen := make(map[string]bool)
		for _, line := range lines[1:] {
			fields := strings.Fields(line)
			require.Len(t, fields, 2)
			assert.False(t, seen[fields[0]], "duplicate winner %s", fields[0])
			seen[fields[0]] = true
		}
	}
}

func TestGenerateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spic.soc")

	_, err := runApp(t, "generate", "--culture", "spic", "-m", "5", "-n", "30", "--seed", "3", "-o", path)
	require.NoError(t, err)

	profile, err := preflib.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, profile.NumCandidates())
	assert.Equal(t, 30, profile.NumVoters())

	_, err = runApp(t, "generate", "--culture", "plurality")
	assert.Error(t, err)
}

func TestSinglePeakedCommand(t *testing.T) {
	peaked := writeFile(t, "peaked.soc", `4
1,a
2,b
3,c
4,d
4,4,4
1,2,1,3,4
1,3,4,2,1
1,1,2,3,4
1,4,3,2,1
`)
	out, err := runApp(t, "single-peaked", "--dataset", peaked)
	require.NoError(t, err)
	assert.Equal(t, "single-peaked: a < b < c < d\n", out)

	cyclic := writeFile(t, "cyclic.soc", `3
1,a
2,b
3,c
3,3,3
1,1,2,3
1,2,3,1
1,3,1,2
`)
	out, err = runApp(t, "single-peaked", "--dataset", cyclic)
	require.NoError(t, err)
	assert.Equal(t, "not single-peaked\n", out)
}

func TestGenerateToStdout(t *testing.T) {
	out, err := runApp(t, "generate", "--culture", "mallows", "-m", "3", "-n", "4", "--phi", "0.5")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "3\n1,Candidate 1\n"), out)
}

func TestExperimentCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "exp.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
name: cli
runs:
  - generate:
      culture: ic
      candidates: 4
      voters: 10
    strategies: [consistent]
    l: [1]
    k: [1]
    r: [2]
`), 0644))
	db := filepath.Join(dir, "db")

	out, err := runApp(t, "--db", db, "experiment", "--config", cfgPath, "--status")
	require.NoError(t, err)
	assert.Equal(t, "cli: not started\n", out)

	out, err = runApp(t, "--db", db, "experiment", "--config", cfgPath, "--csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "dataset,strategy,evaluator,"), out)
	assert.Contains(t, out, "ic-m4-n10,consistent,utilitarian,1,1,2,0,")

	out, err = runApp(t, "--db", db, "experiment", "--config", cfgPath, "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "cli: 1/1 runs completed")

	out, err = runApp(t, "--db", db, "results", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "ic-m4-n10")
}
