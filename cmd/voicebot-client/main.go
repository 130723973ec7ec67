// voicebot-client: sends a recorded question to a voicebot server and
// saves the spoken answer.
//
// Usage:
//
//	voicebot-client -in question.wav -out answer.mp3
//	voicebot-client -record 5s
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-voicebot/internal/log"
	"github.com/teslashibe/go-voicebot/pkg/audioio"
)

var (
	server  = flag.String("server", "ws://localhost:8080/ws/turns", "Turn websocket URL")
	inFile  = flag.String("in", "", "WAV or MP3 recording of the question")
	record  = flag.Duration("record", 0, "Record the question from the microphone for this long instead of -in")
	device  = flag.String("device", "", "Capture device (ALSA only)")
	outFile = flag.String("out", "answer.mp3", "Where to write the spoken answer")
	timeout = flag.Duration("timeout", 2*time.Minute, "How long to wait for the answer")
	debug   = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	if *inFile == "" && *record <= 0 {
		fmt.Fprintln(os.Stderr, "usage: voicebot-client (-in question.wav | -record 5s) [-out answer.mp3]")
		os.Exit(2)
	}

	if err := run(); err != nil {
		log.Error("turn failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	data, err := question()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.Dial(*server, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", *server, err)
	}
	defer ws.Close()

	log.Debug("sending utterance", "bytes", len(data), "server", *server)
	if err := ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}

	ws.SetReadDeadline(time.Now().Add(*timeout))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return err
	}

	turn, err := parseTurn(msg)
	if err != nil {
		return err
	}

	fmt.Printf("You:   %s (%s)\n", turn.Transcript.Text, turn.Transcript.Status)
	fmt.Printf("Bot:   %s (%s, %d attempts)\n", turn.Reply.Text, turn.Reply.Status, turn.Reply.Attempts)
	fmt.Printf("Time:  %dms\n", turn.Metrics.TotalMS)

	audio, err := speechAudio(turn.Speech)
	switch {
	case err != nil:
		return err
	case audio == nil:
		fmt.Printf("Audio: none (%s)\n", silenceReason(turn.Speech))
	default:
		if err := os.WriteFile(*outFile, audio, 0o644); err != nil {
			return err
		}
		fmt.Printf("Audio: %s (%d bytes)\n", *outFile, len(audio))
	}

	ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return nil
}

// question returns the utterance from -in or the microphone.
func question() ([]byte, error) {
	if *record <= 0 {
		return os.ReadFile(*inFile)
	}

	cfg := audioio.DefaultConfig()
	cfg.Device = *device
	src, err := audioio.NewSource(cfg, log.L())
	if err != nil {
		return nil, err
	}
	defer src.Close()

	fmt.Printf("Recording for %s, speak now...\n", *record)
	return audioio.Record(context.Background(), src, *record)
}
