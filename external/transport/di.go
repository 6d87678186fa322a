package transport

import (
	"github.com/samber/do/v2"

	"github.com/foxseedlab/kugirin/internal/config"
	"github.com/foxseedlab/kugirin/internal/session"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		factory := do.MustInvoke[session.Factory](i)
		return NewServer(cfg, factory), nil
	})
}
