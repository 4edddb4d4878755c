package lukso

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TokenID derives the bytes32 token identifier for one fulfilled line item.
// The timestamp is part of the seed, so recomputing for the same line item
// at a later time yields a different id.
func TokenID(orderID, lineItemID, customerID string, at time.Time) common.Hash {
	seed := fmt.Sprintf("%s-%s-%s-%d", orderID, lineItemID, customerID, at.Unix())
	return crypto.Keccak256Hash([]byte(seed))
}

var stringArgs = abi.Arguments{{Type: mustNewType("string")}}

// encodeTokenURI ABI-encodes the metadata URI for the setData value.
func encodeTokenURI(uri string) ([]byte, error) {
	return stringArgs.Pack(uri)
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
