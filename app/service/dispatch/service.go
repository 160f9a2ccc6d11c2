package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/do"
)

const mailboxSize = 64

var _ do.Shutdownable = (*Service)(nil)

// Service fans inbound work out to per-key mailboxes: jobs for one key run
// in FIFO order on a dedicated goroutine, jobs for distinct keys run in
// parallel.
type Service struct {
	ctx context.Context

	mu        sync.Mutex
	mailboxes map[string]chan func()
	closed    bool
	wg        sync.WaitGroup
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		ctx:       do.MustInvoke[context.Context](di),
		mailboxes: make(map[string]chan func()),
	}, nil
}

// Add enqueues a job for key. A full mailbox drops the job with a warning
// rather than blocking the caller's event loop.
func (s *Service) Add(key string, job func()) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return
	}

	mailbox, ok := s.mailboxes[key]
	if !ok {
		mailbox = make(chan func(), mailboxSize)
		s.mailboxes[key] = mailbox

		s.wg.Add(1)
		go s.runWorker(mailbox)
	}
	s.mu.Unlock()

	select {
	case mailbox <- job:
	default:
		slog.Warn("mailbox is full, dropping job", "key", key)
	}
}

func (s *Service) runWorker(mailbox <-chan func()) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case job, ok := <-mailbox:
			if !ok {
				return
			}

			job()
		}
	}
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	for _, mailbox := range s.mailboxes {
		close(mailbox)
	}
	s.mu.Unlock()

	s.wg.Wait()

	return nil
}
