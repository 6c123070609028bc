package main

import (
	"reflect"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "ocrdlp" {
			t.Errorf("expected use 'ocrdlp', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		if cmd.PersistentFlags().Lookup("config") == nil {
			t.Fatal("expected config flag")
		}
	})

	t.Run("has all subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"search":   false,
			"download": false,
			"classify": false,
			"extract":  false,
			"pipeline": false,
			"validate": false,
			"dedup":    false,
			"dataset":  false,
			"history":  false,
			"version":  false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("missing subcommand %q", name)
			}
		}
	})
}

func TestSplitKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "invoice", []string{"invoice"}},
		{"multiple", "invoice,receipt", []string{"invoice", "receipt"}},
		{"spaces trimmed", " invoice , receipt ", []string{"invoice", "receipt"}},
		{"empty entries dropped", "invoice,,receipt,", []string{"invoice", "receipt"}},
		{"empty input", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := splitKeywords(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitKeywords(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupLoggerLevels(t *testing.T) {
	t.Parallel()

	if setupLogger(false) == nil || setupLogger(true) == nil {
		t.Error("setupLogger returned nil")
	}
}
