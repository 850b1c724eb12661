package server

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// stream pushes round events over server-sent events. A new subscriber
// first receives a snapshot of the round in progress, then live events;
// nothing that happened before the subscription is replayed.
func (s *Server) stream(c *gin.Context) {
	sub := s.Hub.Subscribe()
	defer s.Hub.Unsubscribe(sub)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("snapshot", sub.Snapshot)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case ev, ok := <-sub.Events:
			if !ok {
				// Dropped for falling behind; the client should reconnect.
				return
			}
			c.SSEvent("event", ev)
			c.Writer.Flush()
		}
	}
}

func parsePositiveInt(v string, max int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 || n > max {
		return 0, fmt.Errorf("value %d out of range (1..%d)", n, max)
	}
	return n, nil
}
