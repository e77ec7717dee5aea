package ledger

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	poolSeed     = []byte("pool")
	vaultSeed    = []byte("vault")
	binSeed      = []byte("bin")
	positionSeed = []byte("position")
)

// Keys derives record addresses from their seeds, namespaced by a program id
// so that two deployments never share addresses.
type Keys struct {
	Program common.Address
}

func NewKeys(program common.Address) Keys {
	return Keys{Program: program}
}

func (k Keys) derive(seeds ...[]byte) common.Address {
	parts := make([][]byte, 0, len(seeds)+1)
	parts = append(parts, k.Program.Bytes())
	parts = append(parts, seeds...)
	return common.BytesToAddress(crypto.Keccak256(parts...)[12:])
}

// Pool derives the pool address for a mint pair and bin step.
func (k Keys) Pool(mintA, mintB common.Address, binStep uint16) common.Address {
	var step [2]byte
	binary.LittleEndian.PutUint16(step[:], binStep)
	return k.derive(poolSeed, mintA.Bytes(), mintB.Bytes(), step[:])
}

// Vault derives the custody account holding mint for pool.
func (k Keys) Vault(pool, mint common.Address) common.Address {
	return k.derive(vaultSeed, pool.Bytes(), mint.Bytes())
}

// Bin derives the address of bin binID of pool.
func (k Keys) Bin(pool common.Address, binID int32) common.Address {
	var id [4]byte
	binary.LittleEndian.PutUint32(id[:], uint32(binID))
	return k.derive(binSeed, pool.Bytes(), id[:])
}

// Position derives the position address from its credential mint.
func (k Keys) Position(mint common.Address) common.Address {
	return k.derive(positionSeed, mint.Bytes())
}

// BinRange derives count consecutive bin addresses starting at from and
// stepping by binStep. A negative binStep walks downwards.
func (k Keys) BinRange(pool common.Address, from int32, binStep int32, count int) []common.Address {
	out := make([]common.Address, 0, count)
	id := int64(from)
	for i := 0; i < count; i++ {
		if id > int64(maxInt32) || id < int64(minInt32) {
			break
		}
		out = append(out, k.Bin(pool, int32(id)))
		id += int64(binStep)
	}
	return out
}

const (
	maxInt32 = 1<<31 - 1
	minInt32 = -1 << 31
)
