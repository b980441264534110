package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/circuitchat/internal/api"
	"github.com/ziadkadry99/circuitchat/internal/circuit"
	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
	"github.com/ziadkadry99/circuitchat/internal/speech"
	"github.com/ziadkadry99/circuitchat/internal/viewer"
)

const (
	readyMessage       = "Circuit engine ready. Describe the circuit you want to build."
	busyMessage        = "Please wait for the current circuit to finish generating."
	noExplanation      = "Circuit loaded, but explanation was missing or invalid."
	noCircuitMessage   = "No circuit loaded."
	pastedMessage      = "Pasted circuit loaded."
	recognitionMissing = "Speech recognition is not supported in this browser."
	synthesisMissing   = "Speech synthesis is not supported in this browser."
)

// session is one websocket connection's chat. It owns the viewer for the
// connection and allows one generation or analysis at a time.
type session struct {
	h    *Handler
	conn *wsConn
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	viewer     *viewer.Viewer
	recognizer *clientRecognizer

	mu       sync.Mutex
	id       string
	busy     bool
	caps     capabilities
	voiceIn  *speech.Toggle
	voiceOut *speech.Speaker
}

func newSession(ctx context.Context, h *Handler, conn *wsConn) *session {
	ctx, cancel := context.WithCancel(ctx)
	s := &session{
		h:          h,
		conn:       conn,
		log:        h.logger,
		ctx:        ctx,
		cancel:     cancel,
		recognizer: &clientRecognizer{conn: conn},
	}
	s.viewer = viewer.New(&clientEngine{conn: conn}, h.logger)
	s.viewer.OnChange(s.sendViewerState)
	s.voiceIn = speech.NewToggle(speech.Nop{}, s.sendTranscript, s.submit, s.recognitionFailed)
	s.voiceOut = speech.NewSpeaker(speech.Nop{})
	return s
}

func (s *session) sessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *session) send(msg serverMessage) {
	if err := s.conn.send(msg); err != nil && !errors.Is(err, errConnClosed) {
		s.log.Debug("chat: websocket write", zap.String("type", msg.Type), zap.Error(err))
	}
}

// handle dispatches one client message. It runs on the read loop.
func (s *session) handle(msg clientMessage) {
	if msg.Type != inHello && s.sessionID() == "" {
		s.attach("")
	}

	switch msg.Type {
	case inHello:
		s.hello(msg)
	case inMessage:
		s.submit(msg.Content)
	case inAnalyze:
		s.analyze()
	case inPaste:
		s.paste(msg)
	case inView:
		s.send(serverMessage{Type: outCircuit, Circuit: s.viewer.Circuit()})
	case inClear:
		s.viewer.Clear()
	case inReload:
		if _, err := s.viewer.Reload(s.ctx, msg.Circuit); err != nil {
			if errors.Is(err, viewer.ErrNoCircuit) {
				s.post(RoleSystem, noCircuitMessage)
				return
			}
			s.post(RoleSystem, err.Error())
		}
	case inFixed:
		s.viewer.SetFixed(msg.Enabled)
	case inIncludeLayout:
		s.viewer.SetIncludeLayout(msg.Enabled)
	case inVoiceInput:
		s.setVoiceInput(msg.Enabled)
	case inVoiceOutput:
		s.setVoiceOutput(msg.Enabled)
	case inSpeechResult:
		s.recognizer.deliverResults(msg.Results)
	case inSpeechError:
		s.recognizer.deliverError(msg.Error)
	case inMounted:
		if s.viewer.Acknowledge(msg.Generation, nil) {
			s.recordMount(true)
		}
	case inMountError:
		text := msg.Error
		if text == "" {
			text = "unknown error"
		}
		if s.viewer.Acknowledge(msg.Generation, errors.New(text)) {
			s.recordMount(false)
			s.post(RoleSystem, "Error loading circuit: "+text)
		}
	default:
		s.send(serverMessage{Type: outError, Error: "unknown message type: " + msg.Type})
	}
}

// attach binds the connection to a persisted session, resuming id when it
// exists.
func (s *session) attach(id string) (resumed bool) {
	if store := s.h.store; store != nil {
		if id != "" {
			_, err := store.GetSession(s.ctx, id)
			switch {
			case err == nil:
				resumed = true
			case !errors.Is(err, ErrSessionNotFound):
				s.log.Warn("chat: loading session", zap.String("session_id", id), zap.Error(err))
			}
		}
		if !resumed {
			id = ""
			sess, err := store.CreateSession(s.ctx, "anonymous")
			if err != nil {
				s.log.Error("chat: creating session", zap.Error(err))
			} else {
				id = sess.ID
			}
		}
	}
	if id == "" {
		id = uuid.New().String()
	}

	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	s.send(serverMessage{Type: outSession, SessionID: id})
	return resumed
}

func (s *session) hello(msg clientMessage) {
	s.mu.Lock()
	s.caps = msg.Capabilities
	if msg.Capabilities.Recognition {
		s.voiceIn = speech.NewToggle(s.recognizer, s.sendTranscript, s.submit, s.recognitionFailed)
	}
	if msg.Capabilities.Synthesis {
		s.voiceOut = speech.NewSpeaker(&clientSynthesizer{conn: s.conn})
	}
	s.mu.Unlock()

	if !s.attach(msg.SessionID) {
		s.post(RoleSystem, readyMessage)
	}
	s.sendViewerState(s.viewer.State())
	s.log.Info("chat: client connected",
		zap.String("session_id", s.sessionID()),
		zap.Bool("recognition", msg.Capabilities.Recognition),
		zap.Bool("synthesis", msg.Capabilities.Synthesis))
}

// acquire claims the session for one model call. A refused claim is
// reported to the user and busy stays set.
func (s *session) acquire() bool {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.post(RoleSystem, busyMessage)
		return false
	}
	s.busy = true
	s.mu.Unlock()
	s.send(serverMessage{Type: outBusy, Busy: boolPtr(true)})
	return true
}

func (s *session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
	s.send(serverMessage{Type: outBusy, Busy: boolPtr(false)})
}

// submit starts generating a circuit for prompt in the background.
func (s *session) submit(prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return
	}
	if !s.acquire() {
		return
	}
	s.post(RoleUser, prompt)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()
		s.generate(prompt)
	}()
}

func (s *session) generate(prompt string) {
	res, err := s.h.svc.Generate(s.ctx, circuitgen.Request{Prompt: prompt, SessionID: s.sessionID()})
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		_, body := api.GenerateError(s.h.svc.Provider(), err)
		text := "Error: " + body.Error
		if body.ParseErrorMessage != "" {
			text += " (" + body.ParseErrorMessage + ")"
		}
		s.post(RoleSystem, text)
		return
	}

	if _, err := s.viewer.Load(s.ctx, res.CircuitJSON); err != nil {
		s.log.Warn("chat: loading generated circuit", zap.Error(err))
		s.post(RoleSystem, s.viewer.State().Error)
		return
	}

	if strings.TrimSpace(res.Explanation) == "" {
		s.post(RoleSystem, noExplanation)
	} else {
		s.post(RoleAssistant, res.Explanation)
		s.speak(res.Explanation)
	}
	if len(res.Warnings) > 0 {
		s.post(RoleSystem, "Circuit warnings:\n- "+strings.Join(res.Warnings, "\n- "))
	}
}

// analyze asks the model to review the displayed circuit.
func (s *session) analyze() {
	current := s.viewer.Circuit()
	if len(current) == 0 {
		s.post(RoleSystem, noCircuitMessage)
		return
	}
	if !s.acquire() {
		return
	}
	s.post(RoleUser, "Analyze the current circuit.")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()

		out, err := s.h.svc.Analyze(s.ctx, string(current))
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			_, body := api.AnalyzeError(err)
			s.post(RoleSystem, body.Result)
			return
		}
		s.post(RoleAssistant, out)
		s.speak(out)
	}()
}

func (s *session) paste(msg clientMessage) {
	raw := msg.Circuit
	if len(raw) == 0 {
		raw = []byte(msg.Content)
	}
	valid, err := circuit.ValidatePasted(raw)
	if err != nil {
		s.post(RoleSystem, "Invalid circuit JSON: "+err.Error())
		return
	}
	if _, err := s.viewer.Load(s.ctx, valid); err != nil {
		s.post(RoleSystem, s.viewer.State().Error)
		return
	}
	s.post(RoleSystem, pastedMessage)
}

func (s *session) setVoiceInput(on bool) {
	s.mu.Lock()
	toggle := s.voiceIn
	s.mu.Unlock()

	err := toggle.Set(s.ctx, on)
	switch {
	case errors.Is(err, speech.ErrUnsupported):
		s.post(RoleSystem, recognitionMissing)
	case err != nil:
		s.log.Debug("chat: voice input toggle", zap.Bool("on", on), zap.Error(err))
	}
}

func (s *session) setVoiceOutput(on bool) {
	s.mu.Lock()
	speaker, supported := s.voiceOut, s.caps.Synthesis
	s.mu.Unlock()

	if on && !supported {
		s.post(RoleSystem, synthesisMissing)
		return
	}
	if err := speaker.SetEnabled(on); err != nil {
		s.log.Debug("chat: voice output toggle", zap.Bool("on", on), zap.Error(err))
	}
}

func (s *session) speak(text string) {
	s.mu.Lock()
	speaker := s.voiceOut
	s.mu.Unlock()
	if err := speaker.Say(s.ctx, text); err != nil {
		s.log.Debug("chat: speaking", zap.Error(err))
	}
}

func (s *session) sendTranscript(text string) {
	s.send(serverMessage{Type: outSpeech, Transcript: text})
}

func (s *session) recognitionFailed(err error) {
	s.post(RoleSystem, "Speech recognition error: "+err.Error())
}

func (s *session) sendViewerState(st viewer.State) {
	st.Circuit = nil
	s.send(serverMessage{Type: outViewer, Viewer: &st})
}

func (s *session) recordMount(ok bool) {
	if s.h.metrics != nil {
		s.h.metrics.RecordMount(ok)
	}
}

// post records a chat message and sends it to the browser. Assistant
// messages carry rendered markdown.
func (s *session) post(role Role, content string) {
	msg := Message{
		SessionID: s.sessionID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if s.h.store != nil && msg.SessionID != "" {
		saved, err := s.h.store.AddMessage(context.WithoutCancel(s.ctx), msg)
		if err != nil {
			s.log.Warn("chat: saving message", zap.String("role", string(role)), zap.Error(err))
		} else {
			msg = *saved
		}
	}

	var html string
	if role == RoleAssistant && s.h.markdown != nil {
		rendered, err := s.h.markdown.Render([]byte(content))
		if err != nil {
			s.log.Debug("chat: rendering markdown", zap.Error(err))
		} else {
			html = rendered
		}
	}
	if s.h.metrics != nil {
		s.h.metrics.RecordChatMessage(string(role))
	}
	s.send(serverMessage{Type: outMessage, SessionID: msg.SessionID, Message: &msg, HTML: html})
}

// close stops background work and tears the viewer down.
func (s *session) close() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	toggle := s.voiceIn
	s.mu.Unlock()
	_ = toggle.Set(context.Background(), false)
	s.viewer.Close()
}
