// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"errors"
	"testing"
)

// Spinner tests run in machine mode so no animation goroutine starts
// and test output stays clean.

func TestSpinner_StartStop(t *testing.T) {
	orig := CurrentLevel()
	defer SetPersonalityLevel(orig)
	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("loading")
	spin.Start()
	spin.Stop()
}

func TestSpinner_StartIsIdempotent(t *testing.T) {
	orig := CurrentLevel()
	defer SetPersonalityLevel(orig)
	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("loading")
	spin.Start()
	spin.Start() // Second start must not spawn a second animation
	spin.Stop()
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	orig := CurrentLevel()
	defer SetPersonalityLevel(orig)
	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("loading")
	spin.Stop() // Must not panic or block
}

func TestSpinner_UpdateMessage(t *testing.T) {
	orig := CurrentLevel()
	defer SetPersonalityLevel(orig)
	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("initial")
	spin.Start()
	spin.UpdateMessage("best 9 after 100 nodes")
	spin.Stop()

	if spin.message != "best 9 after 100 nodes" {
		t.Errorf("message = %q, want updated message", spin.message)
	}
}

func TestSpinner_WithType(t *testing.T) {
	spin := NewSpinner("loading").WithType(SpinnerAnchor)

	if spin.spinType != SpinnerAnchor {
		t.Errorf("spinType = %v, want SpinnerAnchor", spin.spinType)
	}
}

func TestWithSpinner_Success(t *testing.T) {
	orig := CurrentLevel()
	defer SetPersonalityLevel(orig)
	SetPersonalityLevel(PersonalityMachine)

	called := false
	err := WithSpinner("working", func() error {
		called = true
		return nil
	})

	if err != nil {
		t.Errorf("WithSpinner() error = %v, want nil", err)
	}
	if !called {
		t.Error("function was not called")
	}
}

func TestWithSpinner_Error(t *testing.T) {
	orig := CurrentLevel()
	defer SetPersonalityLevel(orig)
	SetPersonalityLevel(PersonalityMachine)

	wantErr := errors.New("load failed")
	err := WithSpinner("working", func() error {
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("WithSpinner() error = %v, want %v", err, wantErr)
	}
}

func TestSpinnerFrames_AllTypesDefined(t *testing.T) {
	for _, st := range []SpinnerType{SpinnerDots, SpinnerWave, SpinnerAnchor, SpinnerCargo} {
		frames, ok := frameSets[st]
		if !ok || len(frames) == 0 {
			t.Errorf("spinner type %v has no frames", st)
		}
	}
}
