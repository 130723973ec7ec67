package main

import (
	"strings"
	"testing"

	"github.com/teslashibe/go-voicebot/pkg/web"
)

func TestParseTurn(t *testing.T) {
	turn, err := parseTurn([]byte(`{"id":"t1","stage":"DONE","reply":{"text":"ok","status":"generated","attempts":1}}`))
	if err != nil {
		t.Fatalf("parseTurn: %v", err)
	}
	if turn.ID != "t1" || turn.Reply.Text != "ok" {
		t.Errorf("unexpected turn %+v", turn)
	}

	if _, err := parseTurn([]byte(`{"error":"a turn is already in progress"}`)); err == nil ||
		!strings.Contains(err.Error(), "already in progress") {
		t.Errorf("expected server error, got %v", err)
	}
}

func TestSpeechAudio(t *testing.T) {
	data, err := speechAudio(web.SpeechResponse{Status: "spoken", DataURI: "data:audio/mp3;base64,SUQz"})
	if err != nil || string(data) != "ID3" {
		t.Errorf("speechAudio = %q, %v", data, err)
	}

	silent := web.SpeechResponse{Status: "no_audio", Reason: "tts down"}
	data, err = speechAudio(silent)
	if err != nil || data != nil {
		t.Errorf("a reply without audio should succeed empty, got %q, %v", data, err)
	}
	if got := silenceReason(silent); got != "tts down" {
		t.Errorf("silenceReason = %q", got)
	}
	if got := silenceReason(web.SpeechResponse{Status: "no_audio"}); got != "no_audio" {
		t.Errorf("silenceReason without reason = %q", got)
	}

	if _, err := speechAudio(web.SpeechResponse{Status: "spoken", DataURI: "data:audio/mp3,raw"}); err == nil {
		t.Error("expected error for a data uri without base64 payload")
	}
}
