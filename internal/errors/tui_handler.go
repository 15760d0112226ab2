package errors

import (
	"sync"
	"time"
)

// maxMessages bounds the TUI message history.
const maxMessages = 50

// TUIHandler stores messages for the palette status line.
type TUIHandler struct {
	mu       sync.RWMutex
	messages []Message
	onError  func(msg Message)
	now      func() time.Time
}

type Message struct {
	Text      string
	Type      MessageType
	Timestamp time.Time
}

type MessageType int

const (
	MessageTypeError MessageType = iota
	MessageTypeWarning
	MessageTypeInfo
	MessageTypeSuccess
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeError:
		return "error"
	case MessageTypeWarning:
		return "warning"
	case MessageTypeInfo:
		return "info"
	case MessageTypeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// NewTUIHandler returns a handler that calls onMessage, if non-nil, for every
// message. The callback runs with the handler locked and must not call back
// into it.
func NewTUIHandler(onMessage func(msg Message)) *TUIHandler {
	return &TUIHandler{
		messages: make([]Message, 0),
		onError:  onMessage,
		now:      time.Now,
	}
}

func (h *TUIHandler) Error(msg string)   { h.addMessage(msg, MessageTypeError) }
func (h *TUIHandler) Warning(msg string) { h.addMessage(msg, MessageTypeWarning) }
func (h *TUIHandler) Info(msg string)    { h.addMessage(msg, MessageTypeInfo) }
func (h *TUIHandler) Success(msg string) { h.addMessage(msg, MessageTypeSuccess) }

func (h *TUIHandler) addMessage(msg string, msgType MessageType) {
	h.mu.Lock()
	defer h.mu.Unlock()

	message := Message{
		Text:      msg,
		Type:      msgType,
		Timestamp: h.now(),
	}
	h.messages = append(h.messages, message)
	if len(h.messages) > maxMessages {
		h.messages = h.messages[len(h.messages)-maxMessages:]
	}

	if h.onError != nil {
		h.onError(message)
	}
}

func (h *TUIHandler) GetLatest() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// LatestWithin returns the latest message if it is younger than ttl.
func (h *TUIHandler) LatestWithin(ttl time.Duration) (Message, bool) {
	msg, ok := h.GetLatest()
	if !ok || h.now().Sub(msg.Timestamp) > ttl {
		return Message{}, false
	}
	return msg, true
}
