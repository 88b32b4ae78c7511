package libs

import (
	"context"
	"errors"
	"sync"
	"time"

	"cermont/models"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

var (
	ErrQueueFull      = errors.New("notification queue is full")
	ErrNotifierClosed = errors.New("notifier is closed")
)

// Notifier sends mail asynchronously through a buffered queue drained by a
// fixed set of workers. Close stops intake and waits for the queue to drain.
type Notifier struct {
	mailer   Mailer
	log      *zap.Logger
	queue    chan Mail
	workers  int
	attempts uint
	delay    time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewNotifier(mailer Mailer, log *zap.Logger, workers, buffer int) *Notifier {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 100
	}
	return &Notifier{
		mailer:   mailer,
		log:      log,
		queue:    make(chan Mail, buffer),
		workers:  workers,
		attempts: 3,
		delay:    time.Second,
	}
}

// Start launches the workers. ctx bounds retries of in-flight sends only.
func (n *Notifier) Start(ctx context.Context) {
	for i := 0; i < n.workers; i++ {
		n.wg.Add(1)
		go n.work(ctx)
	}
}

func (n *Notifier) work(ctx context.Context) {
	defer n.wg.Done()
	for mail := range n.queue {
		err := retry.Do(
			func() error {
				return n.mailer.Send(ctx, mail)
			},
			retry.Context(ctx),
			retry.Attempts(n.attempts),
			retry.Delay(n.delay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			n.log.Warn("notification not delivered", zap.String("to", mail.To), zap.String("subject", mail.Subject), zap.Error(err))
		}
	}
}

func (n *Notifier) Enqueue(mail Mail) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}
	select {
	case n.queue <- mail:
		return nil
	default:
		return ErrQueueFull
	}
}

func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	n.wg.Wait()
}

func (n *Notifier) OrderAssigned(_ context.Context, technician *models.User, order *models.Order) error {
	if technician == nil || technician.Email == "" {
		return nil
	}
	return n.Enqueue(OrderAssignedMail(technician.Email, technician.Name, order.Numero, order.Cliente))
}

func (n *Notifier) OrderStateChanged(_ context.Context, recipient *models.User, order *models.Order, from models.OrderState, comment string) error {
	if recipient == nil || recipient.Email == "" {
		return nil
	}
	return n.Enqueue(OrderStateChangedMail(recipient.Email, order.Numero, string(from), string(order.State), comment))
}

func (n *Notifier) EvidenceRejected(_ context.Context, uploader *models.User, order *models.Order, evidence *models.Evidence) error {
	if uploader == nil || uploader.Email == "" {
		return nil
	}
	return n.Enqueue(EvidenceRejectedMail(uploader.Email, order.Numero, evidence.FileName, evidence.RejectionReason))
}

func (n *Notifier) PasswordReset(_ context.Context, email, otp string) error {
	return n.Enqueue(PasswordResetMail(email, otp))
}
