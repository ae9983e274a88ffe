package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"

	"firtrace/pkg/domain"
	"firtrace/pkg/platform/sentinel"
)

// MemoryWallet is an in-process wallet for tests and local development. Each
// account is an ed25519 key pair; the account address is derived from the
// public key the same way the verifier recovers it. Signatures are the
// envelope pubkey||sig so the server can recover the signer without a key
// registry.
type MemoryWallet struct {
	mu            sync.Mutex
	accounts      []ed25519.PrivateKey
	current       int // -1 when disconnected
	chainID       domain.ChainID
	rejectPrompts bool

	watchers map[int]chan Change
	nextWID  int
}

// NewMemoryWallet creates a wallet with n generated accounts, disconnected,
// on the given chain.
func NewMemoryWallet(n int, chainID domain.ChainID) (*MemoryWallet, error) {
	w := &MemoryWallet{
		current:  -1,
		chainID:  chainID,
		watchers: make(map[int]chan Change),
	}
	for i := 0; i < n; i++ {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate wallet key: %w", err)
		}
		w.accounts = append(w.accounts, priv)
	}
	return w, nil
}

// AddressOf returns the address of account i.
func (w *MemoryWallet) AddressOf(i int) domain.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	pub := w.accounts[i].Public().(ed25519.PublicKey)
	return domain.DeriveAddress(pub)
}

// RejectPrompts makes subsequent Request and Sign calls fail as if the human
// declined. Test control.
func (w *MemoryWallet) RejectPrompts(reject bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rejectPrompts = reject
}

func (w *MemoryWallet) Current(_ context.Context) (domain.Identity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current < 0 {
		return domain.Identity{}, fmt.Errorf("no connected account: %w", sentinel.ErrNotFound)
	}
	return w.identityLocked(), nil
}

func (w *MemoryWallet) Request(_ context.Context) (domain.Identity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rejectPrompts {
		return domain.Identity{}, fmt.Errorf("account selection: %w", sentinel.ErrRejected)
	}
	if len(w.accounts) == 0 {
		return domain.Identity{}, fmt.Errorf("wallet has no accounts: %w", sentinel.ErrUnavailable)
	}
	if w.current < 0 {
		w.current = 0
	}
	return w.identityLocked(), nil
}

func (w *MemoryWallet) Sign(_ context.Context, message []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rejectPrompts {
		return nil, fmt.Errorf("signature prompt: %w", sentinel.ErrRejected)
	}
	if w.current < 0 {
		return nil, fmt.Errorf("no connected account: %w", sentinel.ErrUnavailable)
	}
	priv := w.accounts[w.current]
	pub := priv.Public().(ed25519.PublicKey)
	sig := ed25519.Sign(priv, message)

	envelope := make([]byte, 0, len(pub)+len(sig))
	envelope = append(envelope, pub...)
	envelope = append(envelope, sig...)
	return envelope, nil
}

func (w *MemoryWallet) Changes(ctx context.Context) (<-chan Change, error) {
	w.mu.Lock()
	wid := w.nextWID
	w.nextWID++
	ch := make(chan Change, 16)
	w.watchers[wid] = ch
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		delete(w.watchers, wid)
		close(ch)
		w.mu.Unlock()
	}()

	return ch, nil
}

// SwitchAccount simulates the human picking a different account.
func (w *MemoryWallet) SwitchAccount(i int) {
	w.mu.Lock()
	w.current = i
	ident := w.identityLocked()
	w.notifyLocked(&ident)
	w.mu.Unlock()
}

// SwitchChain simulates a network change in the wallet.
func (w *MemoryWallet) SwitchChain(chainID domain.ChainID) {
	w.mu.Lock()
	w.chainID = chainID
	if w.current >= 0 {
		ident := w.identityLocked()
		w.notifyLocked(&ident)
	}
	w.mu.Unlock()
}

// Disconnect simulates the wallet being locked or disconnected.
func (w *MemoryWallet) Disconnect() {
	w.mu.Lock()
	w.current = -1
	w.notifyLocked(nil)
	w.mu.Unlock()
}

func (w *MemoryWallet) identityLocked() domain.Identity {
	pub := w.accounts[w.current].Public().(ed25519.PublicKey)
	return domain.Identity{Address: domain.DeriveAddress(pub), ChainID: w.chainID}
}

func (w *MemoryWallet) notifyLocked(ident *domain.Identity) {
	for _, ch := range w.watchers {
		select {
		case ch <- Change{Identity: ident}:
		default:
		}
	}
}
