package netio

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/frankischilling/cupidscript/internal/async"
)

// PollFunc is installed on an async.Scheduler via SetPollFunc; it is the
// "polls (via poll on POSIX, select on the other platform path)" line of
// spec §4.4, always using poll(2) here since CupidScript's CLI host only
// targets POSIX platforms.
func PollFunc(fds []async.PollFD, timeout time.Duration) ([]async.PollFD, error) {
	if len(fds) == 0 {
		return nil, nil
	}

	pfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		var events int16
		if fd.Read {
			events |= unix.POLLIN
		}
		if fd.Write {
			events |= unix.POLLOUT
		}
		pfds[i] = unix.PollFd{Fd: int32(fd.Fd), Events: events}
	}

	ms := int(timeout / time.Millisecond)
	if ms < 0 {
		ms = 0
	}

	_, err := unix.Poll(pfds, ms)
	if err != nil && err != unix.EINTR {
		return nil, err
	}

	ready := make([]async.PollFD, 0, len(fds))
	for i, pfd := range pfds {
		if pfd.Revents == 0 {
			continue
		}
		out := fds[i]
		out.Readable = pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
		out.Writable = pfd.Revents&(unix.POLLOUT|unix.POLLERR) != 0
		ready = append(ready, out)
	}
	return ready, nil
}
