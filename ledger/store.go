package ledger

import (
	"sync"
)

// Message is one role-tagged entry in a conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryCap is the number of non-system messages kept per conversation.
const HistoryCap = 10

type conversation struct {
	history      []Message
	transactions []Transaction
}

// Store holds per-conversation history and extracted transactions, keyed by
// an opaque conversation id. All state is process-lifetime only.
//
// Store is safe for concurrent use across conversation ids. It does not order
// turns within one id; the turn processor serializes those.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*conversation
}

func NewStore() *Store {
	return &Store{conversations: make(map[string]*conversation)}
}

func (s *Store) getOrCreateLocked(id, systemPrompt string) *conversation {
	c, ok := s.conversations[id]
	if !ok {
		c = &conversation{history: []Message{{Role: RoleSystem, Content: systemPrompt}}}
		s.conversations[id] = c
	}
	return c
}

// GetOrCreate ensures a conversation exists, seeding a new one with a single
// system message. An existing conversation is left untouched.
func (s *Store) GetOrCreate(id, systemPrompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(id, systemPrompt)
}

// Reset unconditionally replaces the conversation with a fresh one and clears
// its ledger.
func (s *Store) Reset(id, systemPrompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[id] = &conversation{history: []Message{{Role: RoleSystem, Content: systemPrompt}}}
}

// History returns a snapshot of the non-system part of the conversation
// history, oldest first.
func (s *Store) History(id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok || len(c.history) <= 1 {
		return nil
	}
	out := make([]Message, len(c.history)-1)
	copy(out, c.history[1:])
	return out
}

// AppendTurn appends a user message and the assistant reply, then truncates
// the history to the system message plus the most recent HistoryCap entries.
// The system message always stays at position 0.
func (s *Store) AppendTurn(id, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return
	}
	c.history = append(c.history,
		Message{Role: RoleUser, Content: userText},
		Message{Role: RoleAssistant, Content: assistantText},
	)
	if tail := len(c.history) - 1; tail > HistoryCap {
		kept := append([]Message{c.history[0]}, c.history[len(c.history)-HistoryCap:]...)
		c.history = kept
	}
}

// AppendTransactions extends the conversation ledger in order. The ledger is
// append-only and grows for the process lifetime.
func (s *Store) AppendTransactions(id string, txs []Transaction) {
	if len(txs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return
	}
	c.transactions = append(c.transactions, txs...)
}

// Transactions returns a snapshot of the conversation ledger in insertion
// order.
func (s *Store) Transactions(id string) []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok || len(c.transactions) == 0 {
		return nil
	}
	out := make([]Transaction, len(c.transactions))
	copy(out, c.transactions)
	return out
}

// Balance is the signed sum over the ledger: income positive, expense
// negative.
func (s *Store) Balance(id string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return 0
	}
	var total float64
	for _, t := range c.transactions {
		total += t.Signed()
	}
	return total
}

// Summary aggregates the ledger for reporting.
type Summary struct {
	Balance      float64
	TotalIncome  float64
	TotalExpense float64
	Count        int
	// ByCategory holds signed per-category totals.
	ByCategory map[string]float64
}

func (s *Store) Summary(id string) Summary {
	txs := s.Transactions(id)
	sum := Summary{Count: len(txs), ByCategory: make(map[string]float64)}
	for _, t := range txs {
		if t.Kind == KindIncome {
			sum.TotalIncome += t.Amount
		} else {
			sum.TotalExpense += t.Amount
		}
		sum.ByCategory[t.Category] += t.Signed()
	}
	sum.Balance = sum.TotalIncome - sum.TotalExpense
	return sum
}
