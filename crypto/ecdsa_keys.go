package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// generateSecp256k1KeyPair generates a new secp256k1 key pair, returning the
// raw 32-byte private scalar and the 33-byte compressed public key.
func generateSecp256k1KeyPair() (priv, pub []byte, err error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: secp256k1: %v", ErrGenerationFailed, err)
	}
	return key.Serialize(), key.PubKey().SerializeCompressed(), nil
}
