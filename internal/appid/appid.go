// Package appid resolves the coinlens application identity: binary name,
// env prefix and config directory name. The identity embedded in the binary
// is used when no .fulmen/app.yaml is found.
package appid

import (
	"context"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/coinlens/coinlens/internal/assets/appidentity"
)

// Fallbacks when the identity omits a field.
const (
	DefaultBinaryName = "coinlens"
	DefaultEnvPrefix  = "COINLENS_"
)

func init() {
	// FULMEN_APP_IDENTITY_PATH and an on-disk .fulmen/app.yaml still win.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// EnvPrefix returns the identity's env prefix, always ending in "_", so
// COINLENS_AILINK_DEFAULT_PROVIDER and COINLENS_ADMIN_TOKEN share one root.
func EnvPrefix(identity *appidentity.Identity) string {
	prefix := DefaultEnvPrefix
	if identity != nil && strings.TrimSpace(identity.EnvPrefix) != "" {
		prefix = identity.EnvPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}
