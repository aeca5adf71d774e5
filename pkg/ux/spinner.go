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
	"fmt"
	"sync"
	"time"
)

// SpinnerType picks the animation frame set.
type SpinnerType int

const (
	SpinnerDots SpinnerType = iota
	SpinnerWave
	SpinnerAnchor
	SpinnerCargo
)

var frameSets = map[SpinnerType][]string{
	SpinnerDots:   {"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	SpinnerWave:   {"~", "≈", "≋", "≈"},
	SpinnerAnchor: {"⚓", "⚓ ", "⚓  ", "⚓   ", "⚓  ", "⚓ "},
	SpinnerCargo:  {"▱▱▱", "▰▱▱", "▰▰▱", "▰▰▰", "▰▰▱", "▰▱▱"},
}

const frameInterval = 80 * time.Millisecond

// Spinner animates a one-line progress indicator on stdout. In machine
// mode Start prints a single "PROGRESS:" record and nothing animates.
//
// Thread Safety: Start, Stop, and UpdateMessage may be called from
// different goroutines; the solve path updates the message from the
// incumbent callback while the animation goroutine reads it.
type Spinner struct {
	mu       sync.Mutex
	message  string
	spinType SpinnerType
	running  bool
	quit     chan struct{}
	idle     chan struct{}
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		quit:    make(chan struct{}),
		idle:    make(chan struct{}),
	}
}

// WithType selects the animation frames. Call before Start.
func (s *Spinner) WithType(t SpinnerType) *Spinner {
	s.spinType = t
	return s
}

// Start begins the animation. A second Start on a running spinner is a
// no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	if CurrentLevel() == PersonalityMachine {
		fmt.Printf("PROGRESS: %s\n", s.message)
		return
	}
	go s.animate()
}

// animate redraws the spinner line until quit closes, then clears the
// line and signals idle.
func (s *Spinner) animate() {
	frames := frameSets[s.spinType]
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.quit:
			fmt.Print("\r\033[K")
			close(s.idle)
			return
		case <-ticker.C:
			s.mu.Lock()
			message := s.message
			s.mu.Unlock()
			fmt.Printf("\r%s %s", styleHighlight.Render(frames[i%len(frames)]), message)
		}
	}
}

// Stop halts the animation and clears the spinner line. It blocks until
// the animation goroutine has released the terminal.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	if CurrentLevel() == PersonalityMachine {
		return
	}
	close(s.quit)
	<-s.idle
}

// UpdateMessage changes the spinner message while running.
//
// The solve command uses this to surface incumbent improvements as
// the search runs.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	Success(message)
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	Error(message)
}

// StopWithWarning stops the spinner and prints a warning line.
func (s *Spinner) StopWithWarning(message string) {
	s.Stop()
	Warning(message)
}

// WithSpinner runs fn under a spinner and reports its outcome on the
// final line.
func WithSpinner(message string, fn func() error) error {
	spin := NewSpinner(message)
	spin.Start()

	if err := fn(); err != nil {
		spin.StopWithError(fmt.Sprintf("%s: %v", message, err))
		return err
	}
	spin.StopWithSuccess(message)
	return nil
}
