package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"koe/agent/internal/config"
	"koe/agent/internal/dispatch"
	"koe/agent/internal/floor"
	"koe/agent/internal/lexicon"
	"koe/agent/internal/store"
)

// simulate drives scripted event sequences through a real engine with a
// printing speech-control surface, so decision behavior and latency can
// be eyeballed without a worker connection.

type printControl struct{}

func (printControl) InterruptSpeech(ctx context.Context, sessionID, utteranceID string) error {
	fmt.Printf("    -> interrupt_speech utt=%s\n", utteranceID)
	return nil
}

func (printControl) CommitTurn(ctx context.Context, sessionID, utteranceID string) error {
	fmt.Printf("    -> commit_turn utt=%s\n", utteranceID)
	return nil
}

func (printControl) ClearTurn(ctx context.Context, sessionID string) error {
	fmt.Printf("    -> clear_turn\n")
	return nil
}

func main() {
	waitMs := flag.Int("wait-ms", 120, "transcript wait before the fallback fires")
	fallback := flag.String("fallback", "interrupt", "timeout fallback: interrupt|ignore")
	threshold := flag.Float64("threshold", 0.8, "fuzzy match threshold")
	flag.Parse()

	cfg := config.Load()
	cls, err := lexicon.NewClassifier(cfg.Engine.IgnoreWords, cfg.Engine.CommandWords, *threshold)
	if err != nil {
		log.Fatalf("lexicon: %v", err)
	}

	fb := floor.ActionInterrupt
	if *fallback == "ignore" {
		fb = floor.ActionIgnore
	}
	eng := floor.NewEngine(cls, store.New(), dispatch.New(printControl{}), floor.Options{
		TranscriptWait:  time.Duration(*waitMs) * time.Millisecond,
		TimeoutFallback: fb,
	})

	const sid = "sim"
	scenarios := []struct {
		name string
		run  func()
	}{
		{"backchannel while agent speaks", func() {
			must(eng.OnAgentSpeechStarted(sid, "a1", true))
			eng.OnVADStart(sid)
			show(eng.OnTranscript(sid, "u1", "yeah", true))
			eng.OnAgentSpeechStopped(sid)
		}},
		{"backchannel while agent silent", func() {
			show(eng.OnVADStart(sid))
			show(eng.OnTranscript(sid, "u2", "yeah", true))
		}},
		{"command interrupts from interim", func() {
			must(eng.OnAgentSpeechStarted(sid, "a2", true))
			eng.OnVADStart(sid)
			show(eng.OnTranscript(sid, "u3", "stop", false))
			eng.OnAgentSpeechStopped(sid)
		}},
		{"command buried in backchannels", func() {
			must(eng.OnAgentSpeechStarted(sid, "a3", true))
			eng.OnVADStart(sid)
			show(eng.OnTranscript(sid, "u4", "yeah okay but wait", true))
			eng.OnAgentSpeechStopped(sid)
		}},
		{"provisional ignore reversed by final", func() {
			must(eng.OnAgentSpeechStarted(sid, "a4", true))
			eng.OnVADStart(sid)
			show(eng.OnTranscript(sid, "u5", "yeah", false))
			show(eng.OnTranscript(sid, "u5", "yeah hold on", true))
			eng.OnAgentSpeechStopped(sid)
		}},
		{"no transcript before timeout", func() {
			must(eng.OnAgentSpeechStarted(sid, "a5", true))
			eng.OnVADStart(sid)
			fmt.Printf("    (waiting %dms for the fallback...)\n", *waitMs)
			time.Sleep(time.Duration(*waitMs)*time.Millisecond + 50*time.Millisecond)
			eng.OnAgentSpeechStopped(sid)
		}},
	}

	for i, sc := range scenarios {
		fmt.Printf("[%d] %s\n", i+1, sc.name)
		sc.run()
		// Let fire-and-forget dispatches drain before the next scenario.
		time.Sleep(20 * time.Millisecond)
		fmt.Println()
	}
}

func show(d *floor.Decision) {
	if d == nil {
		fmt.Println("    (no decision)")
		return
	}
	fmt.Printf("    decision action=%s reason=%s provisional=%v\n", d.Action, d.Reason, d.Provisional)
}

func must(err error) {
	if err != nil {
		log.Fatalf("scenario setup: %v", err)
	}
}
