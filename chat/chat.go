package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/cogmesh/cog"
	"github.com/hupe1980/cogmesh/core"
	"github.com/hupe1980/cogmesh/model"
)

// Entry is a single conversation turn.
type Entry struct {
	ID   string    `json:"id"`
	Role string    `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// NewEntry creates an entry with a fresh ID and UTC timestamp.
func NewEntry(role, text string) Entry {
	return Entry{
		ID:   core.NewID(),
		Role: role,
		Text: text,
		Time: time.Now().UTC(),
	}
}

// SystemEntry creates a system instruction turn.
func SystemEntry(text string) Entry { return NewEntry(model.RoleSystem, text) }

// UserEntry creates a user turn.
func UserEntry(text string) Entry { return NewEntry(model.RoleUser, text) }

// AssistantEntry creates an assistant turn.
func AssistantEntry(text string) Entry { return NewEntry(model.RoleAssistant, text) }

// Log is the conversation state owned by a chat unit.
type Log []Entry

// Append returns a new log containing the given entries. The receiver is
// copied, never mutated, so previously taken snapshots stay frozen.
func (l Log) Append(entries ...Entry) Log {
	next := make(Log, len(l), len(l)+len(entries))
	copy(next, l)
	return append(next, entries...)
}

// Messages converts the log into the normalized form models consume.
func (l Log) Messages() []model.Message {
	msgs := make([]model.Message, len(l))
	for i, e := range l {
		msgs[i] = model.Message{Role: e.Role, Content: e.Text}
	}
	return msgs
}

// Last returns the most recent entry, if any.
func (l Log) Last() (Entry, bool) {
	if len(l) == 0 {
		return Entry{}, false
	}
	return l[len(l)-1], true
}

// Render formats the log as one "role: text" line per entry.
func (l Log) Render() string {
	var b strings.Builder
	for _, e := range l {
		fmt.Fprintf(&b, "%s: %s\n", e.Role, e.Text)
	}
	return b.String()
}

// Transition returns the chat state machine: append the incoming entry,
// complete over the whole conversation, append and emit the reply. A model
// failure leaves the log exactly as it was, including the failed input.
func Transition(m model.Model) cog.Transition[Log, Entry] {
	return func(ctx context.Context, log Log, in Entry) (Log, Entry, error) {
		withInput := log.Append(in)

		reply, err := m.Complete(ctx, withInput.Messages())
		if err != nil {
			return log, Entry{}, fmt.Errorf("model %q: %w", m.Info().Name, err)
		}

		out := NewEntry(reply.Role, reply.Content)
		return withInput.Append(out), out, nil
	}
}

// NewCog builds a ready-to-run conversation unit. The seed log carries any
// system instructions; snapshots of the returned unit are Logs.
func NewCog(m model.Model, initial Log, inCap, outCap int, optFns ...func(o *cog.Options)) *cog.Cog[Log, Entry] {
	return cog.New(initial, Transition(m), cog.Config[Entry]{
		InputCapacity:  inCap,
		OutputCapacity: outCap,
	}, optFns...)
}
