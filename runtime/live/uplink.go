package live

import (
	"context"
	"errors"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
	"github.com/cyberwithvishal/riyu/runtime/providers/gemini"
)

// DefaultUplinkQueue is the number of frames buffered ahead of the sender.
const DefaultUplinkQueue = 32

type audioSender interface {
	SendAudio(ctx context.Context, pcm []byte) error
}

// uplink feeds encoded frames to one sender goroutine through a bounded
// queue. When the queue is full the oldest frame is dropped.
type uplink struct {
	sender audioSender
	queue  chan []byte
}

func newUplink(sender audioSender, size int) *uplink {
	if size <= 0 {
		size = DefaultUplinkQueue
	}
	return &uplink{sender: sender, queue: make(chan []byte, size)}
}

// Push enqueues a frame without blocking.
func (u *uplink) Push(pcm []byte) {
	for {
		select {
		case u.queue <- pcm:
			return
		default:
		}
		select {
		case <-u.queue:
			prometheus.RecordUplinkFrame(prometheus.StatusDropped)
		default:
		}
	}
}

// run sends queued frames until ctx ends. Sends on a closed transport are
// dropped silently.
func (u *uplink) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case pcm := <-u.queue:
			err := u.sender.SendAudio(ctx, pcm)
			switch {
			case err == nil:
				prometheus.RecordUplinkFrame(prometheus.StatusSent)
			case errors.Is(err, gemini.ErrTransportClosed):
				prometheus.RecordUplinkFrame(prometheus.StatusDropped)
			default:
				prometheus.RecordUplinkFrame(prometheus.StatusError)
				logger.DebugContext(ctx, "uplink send failed", "error", err)
			}
		}
	}
}
