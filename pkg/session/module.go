package session

import (
	"time"

	"github.com/toyz/keel/pkg/keel"
)

// ConfigSecretKey is read when Options.SecretKey is empty
const ConfigSecretKey = "session.secret_key"

// Module returns a keel module that exports *Manager and loads a session for
// every request of the application.
func Module(opts Options) *keel.Module {
	m := &Manager{now: time.Now}
	return keel.NewModule("session",
		keel.BeforeInit(func(cfg *keel.Config) error {
			o := opts
			if o.SecretKey == "" {
				o.SecretKey = cfg.GetString(ConfigSecretKey, "")
			}
			return m.configure(o)
		}),
		keel.Providers(keel.Value(m).Exported()),
		keel.Middleware(m.Middleware()),
	)
}
