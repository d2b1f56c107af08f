package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupEnv(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	cases := []struct {
		args     []string
		env      map[string]string
		expected string
	}{
		{nil, nil, ""},
		{[]string{"--foobar", "bang!"}, nil, "bang!"},
		// make sure reset is good
		{nil, nil, ""},
		// test both variants of the prefix
		{nil, map[string]string{"DEMO_FOOBAR": "good"}, "good"},
		{nil, map[string]string{"DEMOFOOBAR": "silly"}, "silly"},
		// and that cli overrides env...
		{[]string{"--foobar", "important"},
			map[string]string{"DEMO_FOOBAR": "ignored"}, "important"},
	}

	for idx, tc := range cases {
		i := strconv.Itoa(idx)
		// test command that store value of foobar in local variable
		var foo string
		cmd := &cobra.Command{
			Use: "demo",
			RunE: func(cmd *cobra.Command, args []string) error {
				foo = viper.GetString("foobar")
				return nil
			},
		}
		cmd.Flags().String("foobar", "", "Some test value from config")
		PrepareBaseCmd(cmd, "DEMO", "/qwerty/asdfgh") // some missing dir..

		viper.Reset()
		args := append([]string{cmd.Use}, tc.args...)
		err := RunWithArgs(context.Background(), cmd, args, tc.env)
		require.Nil(err, i)
		assert.Equal(tc.expected, foo, i)
		for k := range tc.env {
			os.Unsetenv(k)
		}
	}
}

func TestSetupConfig(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, "config", "config.toml"),
		[]byte("boo = \"from file\"\n"), 0600))

	cases := []struct {
		args     []string
		expected string
	}{
		{[]string{"--home", home}, "from file"},
		{[]string{"--home", home, "--boo", "from flag"}, "from flag"},
		{[]string{"--home", t.TempDir()}, "default"},
	}
	for i, tc := range cases {
		var boo string
		cmd := &cobra.Command{
			Use: "reader",
			RunE: func(cmd *cobra.Command, args []string) error {
				boo = viper.GetString("boo")
				return nil
			},
		}
		cmd.Flags().String("boo", "default", "Some test value from config")
		PrepareBaseCmd(cmd, "RD", "/qwerty/asdfgh")

		viper.Reset()
		args := append([]string{cmd.Use}, tc.args...)
		require.NoError(t, RunWithArgs(context.Background(), cmd, args, nil), i)
		assert.Equal(t, tc.expected, boo, i)
	}
}

type codeError int

func (e codeError) Error() string { return fmt.Sprintf("code %d", int(e)) }
func (e codeError) ExitCode() int { return int(e) }

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(fmt.Errorf("plain")))
	assert.Equal(t, 3, ExitCode(codeError(3)))
	assert.Equal(t, 4, ExitCode(fmt.Errorf("wrapped: %w", codeError(4))))
}
