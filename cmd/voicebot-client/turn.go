package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-voicebot/pkg/web"
)

// parseTurn decodes a server reply, which is either a turn or an error.
func parseTurn(msg []byte) (*web.TurnResponse, error) {
	var rejected web.ErrorResponse
	if err := json.Unmarshal(msg, &rejected); err == nil && rejected.Error != "" {
		return nil, fmt.Errorf("server: %s", rejected.Error)
	}

	var turn web.TurnResponse
	if err := json.Unmarshal(msg, &turn); err != nil {
		return nil, fmt.Errorf("decode turn: %w", err)
	}
	return &turn, nil
}

// speechAudio extracts the audio bytes from the speech data URI. A reply
// without audio is still a complete turn and yields nil, nil.
func speechAudio(s web.SpeechResponse) ([]byte, error) {
	if s.DataURI == "" {
		return nil, nil
	}

	_, payload, ok := strings.Cut(s.DataURI, ";base64,")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// silenceReason explains a reply that carries no audio.
func silenceReason(s web.SpeechResponse) string {
	if s.Reason != "" {
		return s.Reason
	}
	return s.Status
}
