package services

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/utils"
)

// MatcherConfig tunes candidate scoring. Weights must sum to 1.
type MatcherConfig struct {
	AmountWeight         float64
	DateWeight           float64
	DescriptionWeight    float64
	AmountToleranceMinor int64 // Delta at or beyond this scores zero on amount
	DateToleranceDays    int   // Pairs at or beyond this delta are never proposed
	MinScore             float64
}

// DefaultMatcherConfig returns the stock scoring profile.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		AmountWeight:         0.45,
		DateWeight:           0.35,
		DescriptionWeight:    0.20,
		AmountToleranceMinor: 5000,
		DateToleranceDays:    7,
		MinScore:             0.35,
	}
}

// matcher scores bank transactions against ledger entries.
type matcher struct {
	cfg MatcherConfig
}

func newMatcher(cfg MatcherConfig) *matcher {
	return &matcher{cfg: cfg}
}

// entrySignedAmount is the entry's net movement on the bank account, signed
// like a statement row: debits (deposits) positive, credits negative.
func entrySignedAmount(entry domain.JournalEntry, bankAccountID string) int64 {
	var total int64
	for _, line := range entry.Lines {
		if line.AccountID != bankAccountID {
			continue
		}
		if line.Side == domain.Debit {
			total += line.AmountMinor
		} else {
			total -= line.AmountMinor
		}
	}
	return total
}

func (m *matcher) amountScore(deltaMinor int64) float64 {
	if deltaMinor == 0 {
		return 1
	}
	if m.cfg.AmountToleranceMinor <= 0 || deltaMinor >= m.cfg.AmountToleranceMinor {
		return 0
	}
	return 1 - float64(deltaMinor)/float64(m.cfg.AmountToleranceMinor)
}

func (m *matcher) dateScore(deltaDays int) float64 {
	if deltaDays == 0 {
		return 1
	}
	if m.cfg.DateToleranceDays <= 0 || deltaDays >= m.cfg.DateToleranceDays {
		return 0
	}
	return 1 - float64(deltaDays)/float64(m.cfg.DateToleranceDays)
}

// descriptionScore is the Jaccard similarity of the normalized token sets.
func descriptionScore(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	intersection := 0
	for token := range tokensA {
		if tokensB[token] {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(utils.NormalizeDescription(s))
	set := make(map[string]bool, len(fields))
	for _, field := range fields {
		set[field] = true
	}
	return set
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func dateDeltaDays(a, b time.Time) int {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	return int(delta.Hours() / 24)
}

// Propose pairs every unreconciled transaction with every unreconciled
// entry inside the date tolerance window, scores each pair and keeps
// those at or above the minimum score.
// Output order is deterministic: score descending, then smaller amount
// delta, smaller date delta, transaction ID, entry ID.
func (m *matcher) Propose(sessionID string, transactions []domain.BankTransaction, entries []domain.JournalEntry, bankAccountID string, proposedAt time.Time) []domain.MatchCandidate {
	candidates := make([]domain.MatchCandidate, 0)
	for _, txn := range transactions {
		if txn.IsVoid || txn.Reconciled {
			continue
		}
		for _, entry := range entries {
			entryAmount := entrySignedAmount(entry, bankAccountID)
			if entryAmount == 0 {
				continue
			}
			// Opposite signs never describe the same money movement.
			if (txn.AmountMinor > 0) != (entryAmount > 0) {
				continue
			}

			// The date tolerance is a hard window, not just a score
			// decay: pairs outside it are never proposed.
			dateDelta := dateDeltaDays(txn.PostedDate, entry.EntryDate)
			if m.cfg.DateToleranceDays > 0 && dateDelta >= m.cfg.DateToleranceDays {
				continue
			}

			amountDelta := absInt64(txn.AmountMinor - entryAmount)
			score := m.cfg.AmountWeight*m.amountScore(amountDelta) +
				m.cfg.DateWeight*m.dateScore(dateDelta) +
				m.cfg.DescriptionWeight*descriptionScore(txn.Description, entry.Memo)
			if score < m.cfg.MinScore {
				continue
			}

			candidates = append(candidates, domain.MatchCandidate{
				CandidateID:      uuid.NewString(),
				SessionID:        sessionID,
				TransactionID:    txn.TransactionID,
				EntryID:          entry.EntryID,
				Score:            score,
				Status:           domain.CandidatePending,
				AmountDeltaMinor: amountDelta,
				DateDeltaDays:    dateDelta,
				ProposedAt:       proposedAt,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.AmountDeltaMinor != b.AmountDeltaMinor {
			return a.AmountDeltaMinor < b.AmountDeltaMinor
		}
		if a.DateDeltaDays != b.DateDeltaDays {
			return a.DateDeltaDays < b.DateDeltaDays
		}
		if a.TransactionID != b.TransactionID {
			return a.TransactionID < b.TransactionID
		}
		return a.EntryID < b.EntryID
	})
	return candidates
}
