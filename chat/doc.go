// Package chat implements a conversation state domain for stateful units.
//
// It is the worked example of pairing an opaque state with a transition:
//
//   - Entry is one conversation turn (id, role, text, timestamp)
//   - Log is the owned state, an entry list that copies on append so
//     snapshots and forked units never share backing storage
//   - Transition produces the state machine: append the incoming entry,
//     complete over the whole log with a model.Model, append the reply
//
// A chat unit accepts user entries on its input side and emits assistant
// entries on its output side while the log evolves privately inside the
// unit. Forking the unit branches the conversation.
package chat
