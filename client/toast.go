package client

import (
	"errors"
	"sync"
	"time"

	"github.com/Congregate/apperr"
	"github.com/google/uuid"
)

const (
	ToastError = "error"
	ToastInfo  = "info"
)

const defaultToastTTL = 4 * time.Second

type Toast struct {
	ID        string
	Kind      string
	Message   string
	CreatedAt time.Time
}

// Toasts is the queue of transient, dismissible notifications.
type Toasts struct {
	mu    sync.Mutex
	items []Toast
	ttl   time.Duration
	now   func() time.Time
}

func NewToasts() *Toasts {
	return &Toasts{ttl: defaultToastTTL, now: time.Now}
}

func (t *Toasts) Push(kind, message string) Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	toast := Toast{ID: uuid.NewString(), Kind: kind, Message: message, CreatedAt: t.now()}
	t.items = append(t.items, toast)
	return toast
}

// PushError turns a failed request into a user-facing message.
func (t *Toasts) PushError(err error) Toast {
	return t.Push(ToastError, UserMessage(err))
}

// Active returns the toasts that have not expired yet, oldest first.
func (t *Toasts) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	kept := t.items[:0]
	for _, toast := range t.items {
		if now.Sub(toast.CreatedAt) < t.ttl {
			kept = append(kept, toast)
		}
	}
	t.items = kept

	out := make([]Toast, len(kept))
	copy(out, kept)
	return out
}

func (t *Toasts) Dismiss(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, toast := range t.items {
		if toast.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

func (t *Toasts) Clear() {
	t.mu.Lock()
	t.items = nil
	t.mu.Unlock()
}

// UserMessage maps the error taxonomy onto short texts for display.
func UserMessage(err error) string {
	var ve *apperr.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, apperr.ErrAuthorizationDenied):
		return "You don't have permission to do that."
	case errors.Is(err, apperr.ErrNotFound):
		return "That item is no longer available."
	case errors.Is(err, apperr.ErrConflict):
		return "That change conflicts with the current state. Please refresh."
	case errors.Is(err, apperr.ErrTransient):
		return "Network problem. Please try again."
	}
	return "Something went wrong. Please try again."
}
