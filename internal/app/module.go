package app

import (
	"context"

	"github.com/shandysiswandi/gotp/internal/otp"
	"github.com/shandysiswandi/gotp/internal/otp/usecase"
)

func (a *App) initModules() {
	if err := otp.New(otp.Dependency{
		Config:     a.config,
		Router:     a.router,
		Storage:    func(context.Context) (usecase.Storage, error) { return a.storage, nil },
		Clock:      a.clock,
		Validator:  a.validator,
		Instrument: a.ins,
		UUID:       a.uuid,
		HMAC:       a.hmac,
		Mail:       a.mail,
		Messaging:  a.messaging,
	}); err != nil {
		fatal("otp: init module", err)
	}
}
