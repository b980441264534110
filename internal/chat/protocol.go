package chat

import (
	"encoding/json"

	"github.com/ziadkadry99/circuitchat/internal/speech"
	"github.com/ziadkadry99/circuitchat/internal/viewer"
)

// Message types sent by the browser.
const (
	inHello         = "hello"
	inMessage       = "message"
	inAnalyze       = "analyze"
	inPaste         = "paste"
	inView          = "view"
	inClear         = "clear"
	inReload        = "reload"
	inFixed         = "fixed"
	inIncludeLayout = "include_layout"
	inVoiceInput    = "voice_input"
	inVoiceOutput   = "voice_output"
	inSpeechResult  = "speech_result"
	inSpeechError   = "speech_error"
	inMounted       = "mounted"
	inMountError    = "mount_error"
)

// Message types sent to the browser.
const (
	outSession = "session"
	outMessage = "message"
	outViewer  = "viewer"
	outCircuit = "circuit"
	outMount   = "mount"
	outUnmount = "unmount"
	outFixed   = "fixed"
	outBusy    = "busy"
	outSpeech  = "speech"
	outSpeak   = "speak"
	outError   = "error"
)

// capabilities reports which browser speech APIs exist.
type capabilities struct {
	Recognition bool `json:"recognition"`
	Synthesis   bool `json:"synthesis"`
}

// clientMessage is the incoming WebSocket message format.
type clientMessage struct {
	Type         string          `json:"type"`
	SessionID    string          `json:"session_id,omitempty"`
	Content      string          `json:"content,omitempty"`
	Circuit      json.RawMessage `json:"circuit,omitempty"`
	Generation   uint64          `json:"generation,omitempty"`
	Enabled      bool            `json:"enabled,omitempty"`
	Error        string          `json:"error,omitempty"`
	Results      []speech.Result `json:"results,omitempty"`
	Capabilities capabilities    `json:"capabilities"`
}

// serverMessage is the outgoing WebSocket message format.
type serverMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Message   *Message        `json:"message,omitempty"`
	HTML      string          `json:"html,omitempty"`
	Viewer    *viewer.State   `json:"viewer,omitempty"`
	Circuit   json.RawMessage `json:"circuit,omitempty"`

	// Generation numbers mount and unmount commands.
	Generation uint64 `json:"generation,omitempty"`
	Fixed      *bool  `json:"fixed,omitempty"`
	Busy       *bool  `json:"busy,omitempty"`
	Listening  *bool  `json:"listening,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Text       string `json:"text,omitempty"`
	Cancel     bool   `json:"cancel,omitempty"`
	Error      string `json:"error,omitempty"`
}

func boolPtr(b bool) *bool { return &b }
