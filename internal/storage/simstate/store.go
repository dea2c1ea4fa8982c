// Package simstate persists paper wallets of simulate accounts between runs.
package simstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/purse/internal/domain"
)

const defaultStateDir = "./wal/simulate"

// Store keeps the wallet of one simulate account in a json file.
type Store struct {
	path string
}

func getStateDir() string {
	if stateDir := os.Getenv("PURSE_SIMULATE_STATE_DIR"); stateDir != "" {
		return stateDir
	}
	return defaultStateDir
}

// NewStore creates a state store for the given account under the default state dir.
func NewStore(account string) (*Store, error) {
	return NewStoreIn(getStateDir(), account)
}

// NewStoreIn creates a state store for the given account under dir.
func NewStoreIn(dir, account string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create simulate state dir")
	}

	name := sanitizeScope(account)
	if name == "" {
		return nil, fmt.Errorf("invalid simulate account name %q", account)
	}

	return &Store{path: filepath.Join(dir, fmt.Sprintf("%s.json", name))}, nil
}

// State represents all persisted simulator data.
type State struct {
	Wallet    []StoredBalance `json:"wallet"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StoredBalance is a serializable domain.Balance.
type StoredBalance struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// Load reads simulator state from disk. A missing file yields nil state.
func (s *Store) Load() (*State, error) {
	if s == nil || s.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "read simulate state")
	}

	if len(payload) == 0 {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrap(err, "decode simulate state")
	}

	return &state, nil
}

// Save writes simulator state to disk atomically via temp file.
func (s *Store) Save(state State) error {
	if s == nil || s.path == "" {
		return nil
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode simulate state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write simulate state temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist simulate state")
	}

	return nil
}

// NewState converts balances into their stored representation.
func NewState(balances domain.Balances, now time.Time) State {
	wallet := make([]StoredBalance, 0, len(balances))
	for _, b := range balances {
		wallet = append(wallet, StoredBalance{Asset: b.Asset, Amount: b.Amount.String()})
	}
	return State{Wallet: wallet, UpdatedAt: now}
}

// Balances reconstructs the wallet.
func (st *State) Balances() (domain.Balances, error) {
	if st == nil {
		return nil, nil
	}

	out := make(domain.Balances, 0, len(st.Wallet))
	for _, sb := range st.Wallet {
		amount, err := decimal.NewFromString(sb.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "decode wallet amount of %s", sb.Asset)
		}
		out = append(out, domain.Balance{Asset: sb.Asset, Amount: amount})
	}
	return out, nil
}

func sanitizeScope(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}

	var b strings.Builder

	prevUnderscore := false

	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			prevUnderscore = false

			continue
		}

		if !prevUnderscore {
			b.WriteByte('_')

			prevUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
