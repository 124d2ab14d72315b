package main

import (
	"context"
	"log"
	"os"
)

// lifecycle implements control.Lifecycle. Terminate kills the
// configured target process when one is set; otherwise the server
// itself is the controlled application and shuts down.
type lifecycle struct {
	pid      int
	shutdown context.CancelFunc
}

func (l *lifecycle) Terminate() {
	if l.pid > 0 {
		if p, err := os.FindProcess(l.pid); err == nil {
			log.Printf("Terminating target process %d", l.pid)
			if err := p.Kill(); err != nil {
				log.Printf("Kill pid %d: %v", l.pid, err)
			}
			return
		}
	}

	log.Println("Terminate requested, shutting down")
	l.shutdown()
}
