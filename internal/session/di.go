package session

import (
	"github.com/samber/do/v2"

	"github.com/foxseedlab/kugirin/internal/recognizer"
	"github.com/foxseedlab/kugirin/internal/repository"
	"github.com/foxseedlab/kugirin/internal/webhook"
)

// RegisterDI provides a session Factory. Each session gets its own Driver so
// model lifetime is scoped to the connection; the repository and webhook
// sender are shared.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Factory, error) {
		engine := do.MustInvoke[recognizer.Engine](i)
		repo := do.MustInvoke[repository.Repository](i)
		sender := do.MustInvoke[webhook.Sender](i)

		return func(id string, sink Sink) *Controller {
			return NewController(id, recognizer.NewDriver(engine), repo, sender, sink)
		}, nil
	})
}
