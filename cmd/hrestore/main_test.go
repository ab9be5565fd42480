package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"hrestore/internal/hr"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "configuration", err: fmt.Errorf("reading config: %w", hr.ErrConfiguration), want: exitConfig},
		{name: "other", err: errors.New("disk full"), want: exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRootCmd_ConfigurationErrors(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing restore path", args: []string{"restore"}},
		{name: "unknown flag", args: []string{"restore", "--no-such-flag"}},
		{name: "bad flag value", args: []string{"restore", "--days-back", "seven"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootCmd.SetArgs(tt.args)
			err := rootCmd.Execute()
			if got := exitCode(err); got != exitConfig {
				t.Errorf("hrestore %s: exit %d (%v), want %d", strings.Join(tt.args, " "), got, err, exitConfig)
			}
		})
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "my secret phrase\n", want: "my secret phrase"},
		{in: "windows line\r\n", want: "windows line"},
		{in: "  padded  \n", want: "  padded  "},
		{in: "no newline", want: "no newline"},
		{in: "first\nsecond\n", want: "first"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := readLine(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("readLine(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("readLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := readLine(strings.NewReader("")); err == nil {
		t.Error("readLine(\"\") succeeded, want error")
	}
}
