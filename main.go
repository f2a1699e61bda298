// Command gotp serves the OTP issuing and validation API.
package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/gotp/internal/app"
)

const shutdownGrace = 10 * time.Second

func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	a.Stop(ctx)
}
