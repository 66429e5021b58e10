package keyring

import "github.com/rs/zerolog"

// nopLogger is the default when a KeyManager is constructed without an
// explicit logger.
var nopLogger = zerolog.Nop()
