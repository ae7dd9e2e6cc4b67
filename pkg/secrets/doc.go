// Package secrets resolves ${secret:name} references in configuration
// values, so Azure credentials need not be written into intellimap.yaml.
//
// Providers are tried in order. EnvProvider reads INTELLIMAP_SECRET_<NAME>;
// FileProvider reads one file per secret from a directory such as a
// Kubernetes secret mount, and can drop its cache when a file changes.
//
//	r := secrets.NewResolver(
//		[]secrets.Provider{secrets.NewEnvProvider(secrets.DefaultEnvPrefix)},
//		time.Minute,
//	)
//	key, err := r.Resolve(ctx, cfg.Azure.APIKey) // "${secret:azure-key}"
package secrets
