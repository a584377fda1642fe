package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voiceguard-ai/voiceguard/pkg/audio"
	"github.com/voiceguard-ai/voiceguard/pkg/trace"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WSMessage is the envelope for all JSON messages on the recording
// socket. Audio itself travels as binary frames, outside the envelope.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StartPayload describes the PCM stream the client is about to send:
// 16-bit little-endian samples at the declared rate and channel count.
type StartPayload struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
}

// recordSession accumulates one recording over a WebSocket connection.
type recordSession struct {
	id         string
	conn       *websocket.Conn
	sampleRate int
	channels   int
	pcm        []byte
	started    bool
}

// handleRecord serves the live-recording endpoint. Protocol:
//
//	client → {"type":"start","payload":{"sample_rate":16000,"channels":1}}
//	client → binary frames of PCM16-LE audio
//	client → {"type":"stop"}
//	server → {"type":"verdict","payload":<analysis result>}
//
// The server replies to any protocol or pipeline failure with
// {"type":"error","payload":{"code":...,"message":...}} and keeps the
// connection open so the client can start over.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess := &recordSession{
		id:   uuid.New().String()[:8],
		conn: conn,
	}
	log.Printf("[Server] [session %s] recording session opened", sess.id)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Server] [session %s] read error: %v", sess.id, err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := s.appendAudio(sess, data); err != nil {
				s.sendWSError(sess, "stream_overflow", err.Error())
			}
		case websocket.TextMessage:
			if err := s.handleControl(sess, data); err != nil {
				log.Printf("[Server] [session %s] control error: %v", sess.id, err)
				return
			}
		}
	}
}

func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) appendAudio(sess *recordSession, data []byte) error {
	if !sess.started {
		// Audio before start is a client bug; drop it silently.
		return nil
	}
	if int64(len(sess.pcm)+len(data)) > s.config.MaxUploadBytes {
		return fmt.Errorf("recording exceeds %d bytes", s.config.MaxUploadBytes)
	}
	sess.pcm = append(sess.pcm, data...)
	return nil
}

func (s *Server) handleControl(sess *recordSession, data []byte) error {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendWSError(sess, "bad_message", "invalid JSON: "+err.Error())
		return nil
	}

	switch msg.Type {
	case "start":
		var p StartPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.sendWSError(sess, "bad_message", "invalid start payload: "+err.Error())
			return nil
		}
		if p.SampleRate <= 0 || p.Channels <= 0 {
			s.sendWSError(sess, "bad_message",
				fmt.Sprintf("invalid stream parameters: rate=%d channels=%d", p.SampleRate, p.Channels))
			return nil
		}
		sess.sampleRate = p.SampleRate
		sess.channels = p.Channels
		sess.pcm = sess.pcm[:0]
		sess.started = true
		log.Printf("[Server] [session %s] recording started (%d Hz, %d ch)",
			sess.id, p.SampleRate, p.Channels)

	case "stop":
		if !sess.started {
			s.sendWSError(sess, "bad_message", "stop without start")
			return nil
		}
		sess.started = false
		s.analyzeRecording(sess)

	default:
		s.sendWSError(sess, "bad_message", "unknown message type: "+msg.Type)
	}
	return nil
}

// analyzeRecording runs the accumulated PCM through the pipeline and
// sends the verdict (or error) back on the socket.
func (s *Server) analyzeRecording(sess *recordSession) {
	requestID := uuid.New().String()

	ctx, span := trace.StartAnalyze(s.ctx, requestID, "pcm16", len(sess.pcm))
	defer span.End()

	w := audio.FromPCM16(sess.pcm, sess.sampleRate, sess.channels)
	w, err := s.detector.Ingestor().Normalize(w)
	if err != nil {
		trace.RecordError(span, err)
		_, code := classifyError(err)
		s.sendWSError(sess, code, err.Error())
		return
	}

	result, err := s.detector.AnalyzeWaveform(ctx, w)
	if err != nil {
		trace.RecordError(span, err)
		_, code := classifyError(err)
		s.sendWSError(sess, code, err.Error())
		return
	}

	trace.RecordVerdict(span, string(result.Verdict.Label), result.Verdict.Confidence)
	log.Printf("[Server] [session %s] %s (confidence=%.3f)",
		sess.id, result.Verdict.Label, result.Verdict.Confidence)

	payload, err := json.Marshal(AnalyzeResponse{
		RequestID: requestID,
		Result:    *result,
	})
	if err != nil {
		s.sendWSError(sess, "internal", err.Error())
		return
	}
	s.sendWS(sess, WSMessage{Type: "verdict", Payload: payload})
}

func (s *Server) sendWSError(sess *recordSession, code, message string) {
	payload, _ := json.Marshal(ErrorDetail{Code: code, Message: message})
	s.sendWS(sess, WSMessage{Type: "error", Payload: payload})
}

func (s *Server) sendWS(sess *recordSession, msg WSMessage) {
	sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sess.conn.WriteJSON(msg); err != nil {
		log.Printf("[Server] [session %s] write failed: %v", sess.id, err)
	}
}
