package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datachat-cli/internal/frame"
)

// Welcome seeds the transcript after a dataset is loaded.
const Welcome = "Arquivo recebido! Pronto para analisar. Faça uma pergunta ou peça um gráfico."

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Identity distinguishes uploads; only name and size are compared.
type Identity struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type Message struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session holds one conversation: dataset, transcript, insight memory and
// the last generated code. Safe for concurrent use; accessors return copies.
type Session struct {
	ID      string
	Created time.Time

	mu         sync.RWMutex
	identity   Identity
	data       *frame.Frame
	transcript []Message
	insights   []string
	lastCode   string
}

func New() *Session {
	return &Session{ID: uuid.NewString(), Created: time.Now()}
}

// Load parses r as the session dataset unless (name, size) matches the
// current upload. A parse failure leaves the session untouched.
func (s *Session) Load(name string, size int64, r io.Reader, opt frame.Options) (bool, error) {
	id := Identity{Name: name, Size: size}
	s.mu.RLock()
	same := s.data != nil && s.identity == id
	s.mu.RUnlock()
	if same {
		return false, nil
	}

	f, err := frame.Read(r, name, opt)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	s.data = f
	s.transcript = []Message{{Role: RoleAssistant, Text: Welcome, At: time.Now()}}
	s.insights = nil
	s.lastCode = ""
	return true, nil
}

// Data returns the current dataset or nil. Frames are never mutated in place.
func (s *Session) Data() *frame.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Session) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) Append(role, text string) {
	s.mu.Lock()
	s.transcript = append(s.transcript, Message{Role: role, Text: text, At: time.Now()})
	s.mu.Unlock()
}

func (s *Session) Transcript() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.transcript...)
}

// AddInsights appends to the insight memory in order, keeping duplicates.
func (s *Session) AddInsights(items ...string) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	s.insights = append(s.insights, items...)
	s.mu.Unlock()
}

func (s *Session) Insights() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.insights...)
}

func (s *Session) SetLastCode(code string) {
	s.mu.Lock()
	s.lastCode = code
	s.mu.Unlock()
}

func (s *Session) LastCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCode
}
