// Package folio wires the portfolio backend: configuration, storage driver,
// upload pipeline, project database and HTTP server.
//
// Configuration is read from the environment (see [Config]); every variable
// carries the FOLIO_ prefix under the loader's global prefix, for example
// BEAVER_FOLIO_DRIVER.
//
// # Upload pipeline
//
// Client images pass through [upload.Pipeline]:
//
//	Received → DeclaredTypeChecked → Stored → ByteVerified → Committed | Deleted
//
// The declared extension and MIME type are checked against the allow-list
// before anything is written. The file is then stored under a fresh
// "{uuid}{ext}" name, its leading bytes are read back and matched against
// known image signatures, and a file that fails is deleted before the
// request returns.
//
// # Basic usage
//
//	cfg, err := folio.GetConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app, err := folio.NewApp(ctx, cfg, folio.NewLogger(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close()
//	log.Fatal(app.Serve(ctx))
//
// # Storage backends
//
//   - local: a flat directory on disk (github.com/gobeaver/folio/storage/local)
//   - memory: in-process, for tests (github.com/gobeaver/folio/storage/memory)
//   - s3: an S3 bucket or compatible service (github.com/gobeaver/folio/storage/s3)
package folio
