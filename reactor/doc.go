// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness-notification facility used by the
// server loop: a level-triggered epoll reactor and an eventfd Waker that can
// cut a blocked Wait short from any goroutine.
package reactor
