// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync"
	"time"

	"hush/internal/audio"
	"hush/internal/log"
)

// DefaultPublishInterval is used when a non-positive interval is given.
const DefaultPublishInterval = 33 * time.Millisecond

// Publisher periodically observes a Source and fans the resulting Frame out
// to every transport. It runs in a separate goroutine managed by Start and
// Stop, so transports never run on the audio thread.
type Publisher struct {
	source     Source
	transports []Transport
	interval   time.Duration
	now        func() time.Time

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // guards ticker and doneChan across Start/Stop

	sequence uint64
	snap     audio.Snapshot // reused between ticks
}

// NewPublisher creates a publisher that fans snapshots of source out to
// transports.
func NewPublisher(source Source, interval time.Duration, transports ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("publisher: source cannot be nil")
	}
	if interval <= 0 {
		log.Warnf("publisher: invalid interval %s, defaulting to %s", interval, DefaultPublishInterval)
		interval = DefaultPublishInterval
	}
	return &Publisher{
		source:     source,
		transports: transports,
		interval:   interval,
		now:        time.Now,
	}, nil
}

// Start launches the publishing goroutine. Calling Start while running is a
// no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("publisher: Start called but already running")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Debugf("publisher: started (interval %s, %d transports)", p.interval, len(p.transports))
		for {
			select {
			case <-ticker.C:
				p.Publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call more
// than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	log.Debugf("publisher: stopped after %d frames", p.sequence)
	return nil
}

// Publish builds one frame and sends it to every transport. Errors are
// logged and do not stop the remaining transports.
func (p *Publisher) Publish() {
	p.source.Observe(&p.snap)
	p.sequence++
	frame := NewFrame(p.sequence, p.now(), &p.snap)

	for _, t := range p.transports {
		if err := t.Send(frame); err != nil {
			log.Debugf("publisher: %T send failed: %v", t, err)
		}
	}
}

// Close stops the publisher and closes every transport.
func (p *Publisher) Close() error {
	errs := []error{p.Stop()}
	for _, t := range p.transports {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

var _ interface{ Close() error } = (*Publisher)(nil)
