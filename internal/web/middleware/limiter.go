package middleware

import (
	"net/http"
)

type pending struct {
	w    http.ResponseWriter
	r    *http.Request
	next http.Handler
	done chan struct{}
}

// Limiter bounds how many requests a route serves at once. Excess
// requests queue up to queueSize and wait for a slot; beyond that the
// route answers 503 immediately.
type Limiter struct {
	queue    chan pending
	inflight chan struct{}
}

func NewLimiter(queueSize, maxInflight int) *Limiter {
	l := &Limiter{
		queue:    make(chan pending, queueSize),
		inflight: make(chan struct{}, maxInflight),
	}

	go l.dispatch()

	return l
}

func (l *Limiter) dispatch() {
	for p := range l.queue {
		l.inflight <- struct{}{}

		go func(p pending) {
			defer func() {
				<-l.inflight
				close(p.done)
			}()

			p.next.ServeHTTP(p.w, p.r)
		}(p)
	}
}

func (l *Limiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := pending{
			w:    w,
			r:    r,
			next: next,
			done: make(chan struct{}),
		}

		select {
		case l.queue <- p:
			select {
			case <-p.done:
			case <-r.Context().Done():
				http.Error(w, "request canceled or timed out", http.StatusGatewayTimeout)
				return
			}
		default:
			http.Error(w, "server busy", http.StatusServiceUnavailable)
			return
		}
	})
}
