// Package iodriver provides syscall-backed implementations of the
// scheduler's Driver collaborator: New returns an epoll-backed driver on
// linux, a kqueue-backed driver on darwin, and a portable channel-based
// fallback everywhere else. Adapted from the corpus's own FastPoller
// (epoll/kqueue) and wake-fd plumbing, narrowed from "register arbitrary
// file descriptors with per-FD callbacks" down to the single wake
// source a worker park loop actually needs.
package iodriver
