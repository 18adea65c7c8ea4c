package memory

import "github.com/gobeaver/folio/storage"

func init() {
	storage.RegisterDriver("memory", func(cfg storage.DriverConfig) (storage.FileSystem, error) {
		return New(), nil
	})
}
