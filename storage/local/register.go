package local

import "github.com/gobeaver/folio/storage"

func init() {
	storage.RegisterDriver("local", func(cfg storage.DriverConfig) (storage.FileSystem, error) {
		return New(cfg.LocalBasePath)
	})
}
