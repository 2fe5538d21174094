// Package secure stores sensitive bytes in memguard enclaves: encrypted
// at rest in memory, mlocked against swapping where the platform allows.
//
// Buffer implements lifecycle.Disposable, so it slots directly into a
// lifecycle.Managed guard; its destroy-once behavior is itself a
// lifecycle.Disposer.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
	"github.com/systmms/relinq/pkg/lifecycle"
)

// Buffer holds secret bytes inside a memguard enclave. Destruction is
// one-shot: concurrent or repeated Close calls drop the enclave once.
type Buffer struct {
	mu       sync.RWMutex
	enclave  *memguard.Enclave
	disposer *lifecycle.Disposer
}

// NewBuffer copies data into a protected enclave. The caller should zero
// its own copy afterwards; the enclave owns the protected one.
func NewBuffer(data []byte) (*Buffer, error) {
	b := &Buffer{enclave: memguard.NewEnclave(data)}
	d, err := lifecycle.NewDisposer(func() {
		b.mu.Lock()
		b.enclave = nil
		b.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	b.disposer = d
	return b, nil
}

// Open decrypts the enclave into a locked buffer. The caller MUST call
// Destroy on the returned buffer to wipe the plaintext:
//
//	locked, err := buf.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	use(locked.Bytes())
//
// After Close, Open returns an empty locked buffer rather than stale
// plaintext.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	enclave := b.enclave
	b.mu.RUnlock()
	if enclave == nil {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return enclave.Open()
}

// Close drops the enclave. Idempotent; always returns nil. The encrypted
// backing data is safe to leave for the collector — for whole-process
// cleanup call memguard.Purge at exit.
func (b *Buffer) Close() error {
	b.disposer.Release()
	return nil
}

// Destroyed reports whether the buffer has been closed.
func (b *Buffer) Destroyed() bool {
	return b.disposer.Released()
}

var _ lifecycle.Disposable = (*Buffer)(nil)
