// Package voice runs one spoken question through recognition, generation and
// synthesis.
//
// A Pipeline owns the three stages and drives each turn through a fixed
// sequence of stages:
//
//	CAPTURED → TRANSCRIBED → RESPONDED → SPOKEN → DONE
//
// Every stage returns a value, never an error. Failures become sentinel
// values (an "unclear" transcript, the apology reply, a NoAudio artifact)
// that still advance the turn, so RunTurn always reaches DONE.
//
// # Usage
//
//	pipeline, err := voice.NewPipeline(
//	    stt.NewTranscriber(recognizer),
//	    inference.NewResponseGenerator(model),
//	    tts.NewSpeaker(provider),
//	    voice.DefaultConfig(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pipeline.OnEvent(func(ev voice.Event) {
//	    fmt.Printf("%s %s\n", ev.TurnID, ev.Stage)
//	})
//
//	turn := pipeline.RunTurn(ctx, audio.NewUtterance(wav))
//	fmt.Println(turn.Reply.Text)
//	fmt.Println(turn.Speech.HTML())
//
// # Latency Metrics
//
// Each turn carries per-stage latencies, and the pipeline keeps a rolling
// average over recent turns:
//
//	m := pipeline.Metrics()
//	fmt.Println(m.FormatLatency())
package voice
