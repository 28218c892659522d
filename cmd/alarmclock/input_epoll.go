//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// epollWaitMS bounds each epoll_wait so the reader notices ctx cancellation.
const epollWaitMS = 250

// runEvdevSwitch opens device and feeds its key events into sw until ctx is
// canceled or the device fails. It blocks; run it in its own goroutine.
func runEvdevSwitch(ctx context.Context, device string, sw *evdevSwitch) error {
	f, err := os.Open(device)
	if err != nil {
		return fmt.Errorf("open input device %s: %w", device, err)
	}
	defer f.Close()

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	fd := int(f.Fd())
	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
	}

	epollEvents := make([]unix.EpollEvent, 4)
	buf := make([]byte, inputEventSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.EpollWait(epfd, epollEvents, epollWaitMS)
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			if epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return fmt.Errorf("device error/hangup: %s", device)
			}

			if _, err := f.Read(buf); err != nil {
				return fmt.Errorf("read from %s: %w", device, err)
			}

			ev, err := decodeInputEvent(buf)
			if err != nil {
				// Skip malformed events
				continue
			}
			sw.handle(ev)
		}
	}
}
